package surface

import (
	"fmt"
	"testing"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSurface(mobile bool) *Surface {
	n := 0
	return New(Options{Mobile: mobile, NewID: func() string {
		n++
		return fmt.Sprintf("stroke-%d", n)
	}})
}

func pen(x, y float64) PointerEvent {
	return PointerEvent{ClientX: x, ClientY: y, Pressure: 0.7, PointerID: 1, PointerType: PointerPen}
}

var origin = Rect{Width: 800, Height: 500}

func TestShouldCommit(t *testing.T) {
	p := func(x, y float64) models.Point { return models.Point{X: x, Y: y, Pressure: 0.5} }

	assert.False(t, ShouldCommit(nil, 2))
	assert.True(t, ShouldCommit([]models.Point{p(1, 1)}, 2))
	assert.False(t, ShouldCommit([]models.Point{p(1, 1), p(1, 1)}, 2))
	assert.False(t, ShouldCommit([]models.Point{p(0, 0), p(1, 1)}, 2))
	assert.True(t, ShouldCommit([]models.Point{p(0, 0), p(2, 0)}, 2))
	assert.True(t, ShouldCommit([]models.Point{p(0, 0), p(0.1, 0), p(0, 0.1)}, 2))
}

func TestToBoardPoint(t *testing.T) {
	m := placement.DrawLayerMetrics{Scale: 2, OffsetX: 10, OffsetY: 20}
	ev := PointerEvent{ClientX: 130, ClientY: 240}
	got := ToBoardPoint(ev, Rect{Left: 100, Top: 200}, m)
	assert.Equal(t, models.Point{X: 10, Y: 10, Pressure: 0.5}, got)

	ev.Pressure = 0.25
	assert.Equal(t, 0.25, ToBoardPoint(ev, Rect{}, placement.Identity).Pressure)
}

func TestIsNonDrawingTarget(t *testing.T) {
	assert.False(t, IsNonDrawingTarget(nil))
	assert.False(t, IsNonDrawingTarget([]Element{{Tag: "svg"}, {Tag: "div"}}))
	assert.True(t, IsNonDrawingTarget([]Element{{Tag: "span"}, {Tag: "BUTTON"}}))
	assert.True(t, IsNonDrawingTarget([]Element{{Tag: "div", ContentEditable: true}}))
	assert.True(t, IsNonDrawingTarget([]Element{{Tag: "img"}, {Tag: "div", Classes: []string{"pswp", "open"}}}))
}

func TestSurface_DrawAndCommit(t *testing.T) {
	s := newSurface(false)
	s.SelectTool("blue", "var(--color-underline-blue)")

	require.True(t, s.PointerDown(pen(10, 10), origin, placement.Identity))
	assert.True(t, s.Drawing())
	assert.True(t, s.PointerMove(pen(20, 10), origin, placement.Identity))
	assert.False(t, s.PointerMove(pen(20, 10), origin, placement.Identity), "duplicate point")
	assert.True(t, s.PointerMove(pen(30, 12), origin, placement.Identity))

	live, d, ok := s.Live()
	require.True(t, ok)
	assert.Len(t, live.Points, 3)
	assert.NotEmpty(t, d)

	path, ok := s.PointerUp(1)
	require.True(t, ok)
	assert.Equal(t, "stroke-1", path.ID)
	assert.Equal(t, "var(--color-underline-blue)", path.Color)
	assert.Equal(t, 1.0, path.FillOpacity)
	assert.False(t, s.Drawing())

	_, _, ok = s.Live()
	assert.False(t, ok)
	assert.Len(t, s.Committed(), 1)
}

func TestSurface_IgnoresSecondPointerAndOtherButtons(t *testing.T) {
	s := newSurface(false)

	right := PointerEvent{PointerID: 7, PointerType: PointerMouse, Button: 2}
	assert.False(t, s.PointerDown(right, origin, placement.Identity))

	require.True(t, s.PointerDown(pen(0, 0), origin, placement.Identity))

	other := pen(5, 5)
	other.PointerID = 2
	assert.False(t, s.PointerDown(other, origin, placement.Identity))
	assert.False(t, s.PointerMove(other, origin, placement.Identity))
	_, ok := s.PointerUp(2)
	assert.False(t, ok)
	assert.True(t, s.Drawing())
}

func TestSurface_IgnoresInteractiveTargets(t *testing.T) {
	s := newSurface(false)
	ev := pen(0, 0)
	ev.Target = []Element{{Tag: "a"}}
	assert.False(t, s.PointerDown(ev, origin, placement.Identity))
}

func TestSurface_TapCommitsDotAndJitterIsDropped(t *testing.T) {
	s := newSurface(false)

	require.True(t, s.PointerDown(pen(50, 50), origin, placement.Identity))
	path, ok := s.PointerCancel(1)
	require.True(t, ok)
	assert.Contains(t, path.D, " A ")

	require.True(t, s.PointerDown(pen(50, 50), origin, placement.Identity))
	s.PointerMove(pen(50.5, 50.5), origin, placement.Identity)
	_, ok = s.LostCapture(1)
	assert.False(t, ok)
	assert.Len(t, s.Committed(), 1)
}

func TestSurface_EraserKeepsToolForWholeStroke(t *testing.T) {
	s := newSurface(false)
	s.SelectTool(models.EraserToolID, "")

	require.True(t, s.PointerDown(pen(0, 0), origin, placement.Identity))
	s.SelectTool("red", "var(--color-red-600)")
	s.PointerMove(pen(40, 0), origin, placement.Identity)

	live, _, ok := s.Live()
	require.True(t, ok)
	assert.Equal(t, models.ToolEraser, live.Tool)

	path, ok := s.PointerUp(1)
	require.True(t, ok)
	assert.Equal(t, EraserFillColor, path.Color)

	// the next stroke picks up the new marker
	require.True(t, s.PointerDown(pen(0, 0), origin, placement.Identity))
	live, _, _ = s.Live()
	assert.Equal(t, models.ToolMarker, live.Tool)
	assert.Equal(t, "var(--color-red-600)", live.Color)
}

func TestSurface_MobileRequiresTool(t *testing.T) {
	s := newSurface(true)
	assert.False(t, s.Enabled())
	assert.False(t, s.PointerDown(pen(0, 0), origin, placement.Identity))

	s.SelectTool("black", "")
	require.True(t, s.PointerDown(pen(0, 0), origin, placement.Identity))
	s.PointerMove(pen(30, 30), origin, placement.Identity)

	// deselecting disables drawing and finalizes the stroke
	path, ok := s.SelectTool("", "")
	require.True(t, ok)
	assert.Equal(t, models.DefaultMarkers[0].Color, path.Color)
	assert.False(t, s.Drawing())
}

func TestSurface_BlurFinalizes(t *testing.T) {
	s := newSurface(false)
	_, ok := s.Blur()
	assert.False(t, ok)

	require.True(t, s.PointerDown(pen(0, 0), origin, placement.Identity))
	s.PointerMove(pen(10, 0), origin, placement.Identity)
	_, ok = s.Blur()
	assert.True(t, ok)
	assert.False(t, s.Drawing())
}

func TestSurface_TransformsIntoLayoutSpace(t *testing.T) {
	s := newSurface(false)
	m := placement.DrawLayerMetrics{Scale: 0.5, OffsetX: 100}
	require.True(t, s.PointerDown(pen(150, 25), Rect{Left: 0, Top: 0}, m))

	live, _, _ := s.Live()
	assert.Equal(t, 100.0, live.Points[0].X)
	assert.Equal(t, 50.0, live.Points[0].Y)
}
