// Package reveal computes time-based entrance animations: eased style
// interpolation for items, staggered row sequencing for slides, and the
// slide index arithmetic used by keyboard navigation.
package reveal

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Lerp interpolates linearly from start to end.
func Lerp(start, end, progress float64) float64 {
	return start + (end-start)*progress
}
