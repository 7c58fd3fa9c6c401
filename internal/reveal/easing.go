package reveal

import "math"

// Easing names a progress curve.
type Easing string

const (
	Linear         Easing = "linear"
	EaseOutCubic   Easing = "easeOutCubic"
	EaseInOutCubic Easing = "easeInOutCubic"
)

// DefaultEasing is used when an item names none.
const DefaultEasing = EaseOutCubic

var easings = map[Easing]func(float64) float64{
	Linear: func(x float64) float64 { return x },
	EaseOutCubic: func(x float64) float64 {
		return 1 - math.Pow(1-x, 3)
	},
	EaseInOutCubic: func(x float64) float64 {
		if x < 0.5 {
			return 4 * x * x * x
		}
		return 1 - math.Pow(-2*x+2, 3)/2
	},
}

// Valid reports whether e is a known easing.
func (e Easing) Valid() bool {
	_, ok := easings[e]
	return ok
}

// ApplyEasing clamps progress to [0, 1] and runs it through the curve.
// Unknown or empty names fall back to DefaultEasing.
func ApplyEasing(progress float64, e Easing) float64 {
	fn, ok := easings[e]
	if !ok {
		fn = easings[DefaultEasing]
	}
	return fn(Clamp(progress, 0, 1))
}
