package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEasing(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		easing   Easing
		want     float64
	}{
		{"linear mid", 0.25, Linear, 0.25},
		{"out cubic mid", 0.5, EaseOutCubic, 0.875},
		{"in-out cubic first half", 0.25, EaseInOutCubic, 0.0625},
		{"in-out cubic second half", 0.75, EaseInOutCubic, 0.9375},
		{"default is out cubic", 0.5, "", 0.875},
		{"clamps below", -1, Linear, 0},
		{"clamps above", 2, EaseOutCubic, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ApplyEasing(tt.progress, tt.easing), 1e-12)
		})
	}
}

func TestInterpolate_Defaults(t *testing.T) {
	start := Interpolate(0, ItemConfig{Start: 0, End: 1})
	assert.Equal(t, DefaultFrom, start.Style)
	assert.False(t, start.Interactive())
	assert.Equal(t, "translate3d(0px, 42px, 0) scale(0.985) rotate(0deg)", start.Transform())
	assert.Equal(t, "blur(8px)", start.Filter())
	assert.Equal(t, "transform, opacity, filter", start.WillChange())

	end := Interpolate(1, ItemConfig{Start: 0, End: 1})
	assert.Equal(t, DefaultTo, end.Style)
	assert.True(t, end.Revealed())
	assert.Empty(t, end.Transform())
	assert.Empty(t, end.Filter())
	assert.Empty(t, end.Tracking())
	assert.Empty(t, end.WillChange())
}

func TestInterpolate_Window(t *testing.T) {
	cfg := ItemConfig{Start: 0.5, End: 0.5, Easing: Linear, From: &StyleState{Opacity: f(0.2)}}

	before := Interpolate(0.4, cfg)
	assert.Equal(t, 0.0, before.Progress)
	assert.Equal(t, 0.2, before.Opacity)

	// zero-width windows still resolve without dividing by zero
	after := Interpolate(0.50005, cfg)
	assert.InDelta(t, 0.5, after.Progress, 1e-9)
}

func TestRowProgress(t *testing.T) {
	assert.Equal(t, 0.0, RowProgress(100, 200, 520, nil))
	assert.InDelta(t, 0.5, RowProgress(460, 200, 520, nil), 1e-12)
	assert.Equal(t, 1.0, RowProgress(2000, 200, 520, nil))
	assert.Equal(t, 1.0, RowProgress(5, 0, 0, nil))

	at := 100.0
	// not started at activation: starts at the activation time
	assert.InDelta(t, 260.0/520, RowProgress(360, 800, 520, &at), 1e-12)
	// already under way: keeps its delay
	assert.InDelta(t, 310.0/520, RowProgress(360, 50, 520, &at), 1e-12)
}

func TestEstimateSlideDurationMs(t *testing.T) {
	slide := SlideConfig{Rows: []Row{{ID: "a"}, {ID: "b", DelayMs: 300}, {ID: "c", DelayMs: -50}}}
	assert.Equal(t, 820.0, EstimateSlideDurationMs(slide, 520))
	assert.Equal(t, 300.0, EstimateSlideDurationMs(slide, -1))
	assert.Equal(t, 0.0, EstimateSlideDurationMs(SlideConfig{}, 0))
}

func TestSequence(t *testing.T) {
	slide := SlideConfig{ID: "about", Rows: []Row{{ID: "title"}, {ID: "body", DelayMs: 1000}}}
	seq := NewSequence(slide, 0)
	assert.Equal(t, 1520.0, seq.DurationMs())

	assert.False(t, seq.Skip())
	assert.False(t, seq.Revealed())
	assert.True(t, seq.Settled())
	for _, r := range seq.Rows() {
		assert.Equal(t, 0.0, r.Progress)
	}

	seq.Reveal(5000)
	seq.Tick(5260)
	rows := seq.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Started)
	assert.False(t, rows[0].Revealed)
	assert.False(t, rows[1].Started)
	assert.True(t, seq.Revealed())
	assert.False(t, seq.Settled())

	assert.True(t, seq.Skip())
	assert.False(t, seq.Skip())

	seq.Tick(5260 + 520)
	rows = seq.Rows()
	assert.True(t, rows[0].Revealed)
	assert.True(t, rows[1].Revealed)
	assert.Equal(t, 0.0, rows[1].Style.Y)
	assert.True(t, seq.Settled())

	seq.Hide()
	assert.Equal(t, 0.0, seq.Rows()[0].Progress)
	assert.False(t, seq.Rows()[0].Started)
}

func TestGate(t *testing.T) {
	t.Run("claims only while in progress", func(t *testing.T) {
		skips := 0
		g := NewGate("about", 1000, func() { skips++ })

		assert.False(t, g.Claim("about"))
		g.Reveal(0)
		assert.True(t, g.InProgress())
		assert.False(t, g.Claim("contact"))
		assert.True(t, g.Claim("about"))
		assert.False(t, g.Claim("about"))
		assert.True(t, g.Skipped())
		assert.Equal(t, 1, skips)
	})

	t.Run("auto skips when the duration elapses", func(t *testing.T) {
		skips := 0
		g := NewGate("about", 1000, func() { skips++ })
		g.Reveal(100)
		g.Tick(1099)
		assert.True(t, g.InProgress())
		g.Tick(1100)
		assert.False(t, g.InProgress())
		assert.Equal(t, 1, skips)
		assert.False(t, g.Claim("about"))
	})

	t.Run("nothing to animate skips on reveal", func(t *testing.T) {
		g := NewGate("empty", 0, nil)
		g.Reveal(0)
		assert.True(t, g.Skipped())
		assert.False(t, g.InProgress())
	})

	t.Run("hide resets", func(t *testing.T) {
		g := NewGate("about", 1000, nil)
		g.Reveal(0)
		assert.True(t, g.Skip())
		assert.False(t, g.Skip())
		g.Hide()
		assert.False(t, g.Skipped())
		g.Reveal(10)
		assert.True(t, g.InProgress())
	})
}

func TestNavigation(t *testing.T) {
	assert.Equal(t, Backward, NavigationDirection("ArrowUp"))
	assert.Equal(t, Backward, NavigationDirection("ArrowLeft"))
	assert.Equal(t, Forward, NavigationDirection(" "))
	assert.Equal(t, Forward, NavigationDirection("Spacebar"))
	assert.Equal(t, Forward, NavigationDirection("ArrowRight"))
	assert.Equal(t, None, NavigationDirection("Enter"))

	offsets := []float64{0, 900, 1800}
	assert.Equal(t, 0, ResolveCurrentIndex(0, offsets))
	assert.Equal(t, 1, ResolveCurrentIndex(899, offsets))
	assert.Equal(t, 0, ResolveCurrentIndex(898, offsets))
	assert.Equal(t, 2, ResolveCurrentIndex(5000, offsets))
	assert.Equal(t, 0, ResolveCurrentIndex(100, nil))

	assert.Equal(t, 1, NextIndex(0, Forward, 3))
	assert.Equal(t, 2, NextIndex(2, Forward, 3))
	assert.Equal(t, 0, NextIndex(0, Backward, 3))
	assert.Equal(t, 0, NextIndex(0, Forward, 0))
}
