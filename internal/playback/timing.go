// Package playback schedules the progressive reveal of preset drawings.
//
// All per-frame arithmetic lives in pure functions over State so it can be
// driven by any clock; Loop is the thin shell that feeds it real time.
package playback

import (
	"math"

	"github.com/inkboard/backend/internal/models"
)

// DefaultTiming is applied to every field a preset leaves unset.
var DefaultTiming = models.ResolvedTiming{
	PointDurationMs: 0.15625,
	MinDurationMs:   131.25,
	MaxDurationMs:   281.25,
	EaseRampRatio:   0.06,
	DelayMs:         0,
	PlayOnce:        true,
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr(v *float64, fallback float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback, false
	}
	return *v, true
}

func nonNegativeOr(v *float64, fallback float64) float64 {
	if f, ok := finiteOr(v, fallback); ok {
		return math.Max(0, f)
	}
	return fallback
}

// ResolveTimingConfig is the single normalization point for preset timing.
// Missing or non-finite values take the defaults, durations and delay are
// floored at zero and the max duration never falls below the min.
func ResolveTimingConfig(raw *models.TimingConfig) models.ResolvedTiming {
	if raw == nil {
		return DefaultTiming
	}

	minDur := nonNegativeOr(raw.MinDurationMs, DefaultTiming.MinDurationMs)
	maxDur := nonNegativeOr(raw.MaxDurationMs, DefaultTiming.MaxDurationMs)
	ramp, _ := finiteOr(raw.EaseRampRatio, DefaultTiming.EaseRampRatio)
	playOnce := DefaultTiming.PlayOnce
	if raw.PlayOnce != nil {
		playOnce = *raw.PlayOnce
	}

	return models.ResolvedTiming{
		PointDurationMs: nonNegativeOr(raw.PointDurationMs, DefaultTiming.PointDurationMs),
		MinDurationMs:   minDur,
		MaxDurationMs:   math.Max(minDur, maxDur),
		EaseRampRatio:   ramp,
		DelayMs:         nonNegativeOr(raw.DelayMs, DefaultTiming.DelayMs),
		PlayOnce:        playOnce,
	}
}

// AnimationDurationMs is the reveal length of a preset with total points.
func AnimationDurationMs(total int, t models.ResolvedTiming) float64 {
	return clamp(float64(total)*t.PointDurationMs, t.MinDurationMs, t.MaxDurationMs)
}

func smoothRampUnit(p float64) float64 {
	return p * p * (2 - p)
}

// EaseMostlyLinear is linear in the middle with short smooth ramps at both
// ends. ramp is clamped to [0.01, 0.49].
func EaseMostlyLinear(progress, ramp float64) float64 {
	p := clamp(progress, 0, 1)
	r := clamp(ramp, 0.01, 0.49)

	if p <= r {
		return r * smoothRampUnit(p/r)
	}
	if p >= 1-r {
		return 1 - r*smoothRampUnit((1-p)/r)
	}
	return p
}

// VisiblePointCount converts eased progress to a point count. Once a
// reveal has started at least two points are shown so a segment exists.
func VisiblePointCount(eased float64, total int) int {
	n := int(math.Floor(eased * float64(total)))
	if n < 2 {
		n = 2
	}
	if n > total {
		n = total
	}
	return n
}

// DrawablePointCount counts points in strokes long enough to draw.
func DrawablePointCount(d *models.DrawingPreset) int {
	if d == nil {
		return 0
	}
	total := 0
	for _, s := range d.Strokes {
		if len(s) > 1 {
			total += len(s)
		}
	}
	return total
}

// EstimateIntroDurationMs predicts how long a preset takes to finish
// revealing, including its delay. Presets with nothing to draw take 0.
func EstimateIntroDurationMs(cfg models.PresetConfig) float64 {
	total := DrawablePointCount(cfg.Data)
	if total == 0 {
		return 0
	}
	t := ResolveTimingConfig(cfg.Timing)
	return t.DelayMs + AnimationDurationMs(total, t)
}

// RevealSequenceDurationMs is the longest of base and every preset intro.
func RevealSequenceDurationMs(base float64, presets []models.PresetConfig) float64 {
	longest := base
	for _, p := range presets {
		longest = math.Max(longest, EstimateIntroDurationMs(p))
	}
	return longest
}
