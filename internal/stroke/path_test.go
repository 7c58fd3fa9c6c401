package stroke

import (
	"math"
	"strings"
	"testing"

	"github.com/inkboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(n int, length float64) []models.Point {
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{X: length * float64(i) / float64(n-1), Y: 0, Pressure: 0.5}
	}
	return pts
}

func TestRenderPath_Empty(t *testing.T) {
	d, ok := RenderPath(nil, UserOptions(false))
	assert.False(t, ok)
	assert.Empty(t, d)
}

func TestRenderPath_SinglePointDot(t *testing.T) {
	d, ok := RenderPath([]models.Point{{X: 10, Y: 20, Pressure: 0}}, UserOptions(false))
	require.True(t, ok)
	assert.Equal(t, "M 10.00 18.00 A 2.00 2.00 0 1 0 10.00 22.00 A 2.00 2.00 0 1 0 10.00 18.00 Z", d)
}

func TestRenderPath_DotRadiusFloor(t *testing.T) {
	o := UserOptions(false)
	o.Size = 1
	d, ok := RenderPath([]models.Point{{X: 0, Y: 0, Pressure: 0.1}}, o)
	require.True(t, ok)
	assert.Equal(t, "M 0.00 -1.00 A 1.00 1.00 0 1 0 0.00 1.00 A 1.00 1.00 0 1 0 0.00 -1.00 Z", d)
}

func TestRenderPath_DotUsesDefaultSizeWhenUnset(t *testing.T) {
	d, ok := RenderPath([]models.Point{{X: 0, Y: 0, Pressure: 1}}, Options{})
	require.True(t, ok)
	assert.Contains(t, d, "A 4.00 4.00")
}

func TestRenderPath_PolylineIsClosedQuadraticRing(t *testing.T) {
	d, ok := RenderPath(line(20, 100), DefaultPresetOptions(false))
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(d, "M "))
	assert.Contains(t, d, " Q ")
	assert.True(t, strings.HasSuffix(d, " Z"))
}

func TestOutline_StaysWithinRadius(t *testing.T) {
	o := DefaultPresetOptions(false)
	poly := outline(line(30, 120), o)
	require.NotEmpty(t, poly)

	r := o.Size / 2
	maxY := 0.0
	for _, p := range poly {
		assert.LessOrEqual(t, math.Abs(p.y), r+1e-9)
		assert.GreaterOrEqual(t, p.x, -r-1e-9)
		assert.LessOrEqual(t, p.x, 120+r+1e-9)
		maxY = math.Max(maxY, math.Abs(p.y))
	}
	assert.Greater(t, maxY, r*0.9)
}

func TestOutline_RepeatedPointBecomesDot(t *testing.T) {
	p := models.Point{X: 5, Y: 5, Pressure: 0.5}
	poly := outline([]models.Point{p, p}, UserOptions(false))
	require.Len(t, poly, 13)
	for _, v := range poly {
		assert.InDelta(t, 4.0, v.dist(vec{5, 5}), 1e-6)
	}
}

func TestPathFromOutline(t *testing.T) {
	square := []vec{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.Equal(t,
		"M 0.00 0.00 Q 0.00 0.00 1.00 0.00 2.00 0.00 2.00 1.00 2.00 2.00 1.00 2.00 0.00 2.00 0.00 1.00 Z",
		pathFromOutline(square))
	assert.Empty(t, pathFromOutline(nil))
}

func TestFixed2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{math.Copysign(0, -1), "0.00"},
		{0.125, "0.13"},
		{-0.125, "-0.13"},
		{2.5, "2.50"},
		{1.005, "1.00"},
		{0.001, "0.00"},
		{-0.001, "-0.00"},
		{123.456, "123.46"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fixed2(tt.in), "fixed2(%v)", tt.in)
	}
}

func TestBuildPathsFromPointProgress(t *testing.T) {
	groups := []models.Stroke{line(3, 30), line(4, 40)}
	o := DefaultPresetOptions(false)

	t.Run("nothing visible", func(t *testing.T) {
		assert.Empty(t, BuildPathsFromPointProgress(groups, 0, o))
		assert.Empty(t, BuildPathsFromPointProgress(groups, 1, o))
	})

	t.Run("first stroke only", func(t *testing.T) {
		assert.Len(t, BuildPathsFromPointProgress(groups, 3, o), 1)
		// one point left over is not enough for the next stroke
		assert.Len(t, BuildPathsFromPointProgress(groups, 4, o), 1)
	})

	t.Run("partial second stroke", func(t *testing.T) {
		paths := BuildPathsFromPointProgress(groups, 5, o)
		require.Len(t, paths, 2)
		full, _ := RenderPath(groups[1], o)
		assert.NotEqual(t, full, paths[1])
	})

	t.Run("everything", func(t *testing.T) {
		assert.Len(t, BuildPathsFromPointProgress(groups, 100, o), 2)
	})
}

func TestResolvePresetOptions(t *testing.T) {
	size := 12.0
	desktopOnly := &models.ResponsiveStrokeStyle{Desktop: &models.StrokeStyle{Size: &size}}

	assert.Equal(t, DefaultPresetOptions(true), ResolvePresetOptions(nil, true))
	assert.Equal(t, 3.6, ResolvePresetOptions(nil, true).Size)
	assert.Equal(t, 6.2, ResolvePresetOptions(nil, false).Size)

	// mobile falls back to the desktop style before the default
	mobile := ResolvePresetOptions(desktopOnly, true)
	assert.Equal(t, 12.0, mobile.Size)
	assert.Equal(t, 0.5, mobile.Thinning)
	assert.True(t, mobile.SimulatePressure)
	assert.True(t, mobile.Start.Cap)
}

func TestDefaultStyles(t *testing.T) {
	assert.Equal(t, 8.0, UserOptions(false).Size)
	assert.Equal(t, 8.5, UserOptions(true).Size)
	assert.Equal(t, 24.0, EraserOptions(false).Size)
	assert.Equal(t, 19.0, EraserOptions(true).Size)
	assert.Equal(t, 0.08, UserOptions(true).Thinning)
	assert.Equal(t, 0.0, EraserOptions(true).Thinning)
}
