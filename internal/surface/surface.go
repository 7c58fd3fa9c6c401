// Package surface captures freehand strokes from pointer input.
package surface

import (
	"sync"

	"github.com/google/uuid"
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
	"github.com/inkboard/backend/internal/stroke"
)

// Defaults for live strokes.
const (
	DefaultMinStrokeDistance = 2.0
	DrawingFillOpacity       = 1.0
	EraserFillColor          = "var(--color-white)"
	EraserFillOpacity        = 1.0
)

// Options configures a Surface.
type Options struct {
	Mobile bool
	// MinStrokeDistance feeds the commit filter. Zero uses the default.
	MinStrokeDistance float64
	// DefaultColor is the marker color used when no marker is selected.
	DefaultColor string
	// NewID names committed strokes. Nil uses random UUIDs.
	NewID func() string
}

// LiveStroke is the gesture currently being drawn.
type LiveStroke struct {
	Points      []models.Point `json:"points"`
	Tool        models.Tool    `json:"tool"`
	Color       string         `json:"color"`
	FillOpacity float64        `json:"fillOpacity"`
}

// Surface is the pointer state machine of one board: Idle until a
// qualifying pointer-down, Drawing until the gesture is finalized.
type Surface struct {
	mu   sync.Mutex
	opts Options

	toolID      string
	markerColor string

	drawing   bool
	pointerID int
	live      *LiveStroke
	livePath  string
	committed []models.DrawPath
}

// New creates an idle surface.
func New(opts Options) *Surface {
	if opts.MinStrokeDistance <= 0 {
		opts.MinStrokeDistance = DefaultMinStrokeDistance
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = models.DefaultMarkers[0].Color
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	return &Surface{opts: opts}
}

// Enabled reports whether pointer-down may start a stroke. Small viewports
// require an explicit tool choice so scrolling is not mistaken for ink.
func (s *Surface) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabledLocked()
}

func (s *Surface) enabledLocked() bool {
	return !s.opts.Mobile || s.toolID != ""
}

// Drawing reports whether a gesture is in progress.
func (s *Surface) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// SelectTool records the chosen tool and marker color. An empty toolID
// clears the selection. A stroke in progress keeps the tool it started
// with; if the selection disables drawing, that stroke is finalized.
func (s *Surface) SelectTool(toolID, markerColor string) (*models.DrawPath, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toolID = toolID
	s.markerColor = markerColor

	if !s.enabledLocked() {
		return s.finishLocked()
	}
	return nil, false
}

// ToolID returns the selected tool id.
func (s *Surface) ToolID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolID
}

func (s *Surface) options(tool models.Tool) stroke.Options {
	if tool == models.ToolEraser {
		return stroke.EraserOptions(s.opts.Mobile)
	}
	return stroke.UserOptions(s.opts.Mobile)
}

// PointerDown starts a stroke. It reports whether the event was accepted.
func (s *Surface) PointerDown(ev PointerEvent, rect Rect, m placement.DrawLayerMetrics) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabledLocked() || s.drawing {
		return false
	}
	if ev.PointerType == PointerMouse && ev.Button != 0 {
		return false
	}
	if IsNonDrawingTarget(ev.Target) {
		return false
	}

	live := &LiveStroke{
		Points:      []models.Point{ToBoardPoint(ev, rect, m)},
		Tool:        models.ToolMarker,
		Color:       s.opts.DefaultColor,
		FillOpacity: DrawingFillOpacity,
	}
	if s.markerColor != "" {
		live.Color = s.markerColor
	}
	if s.toolID == models.EraserToolID {
		live.Tool = models.ToolEraser
		live.Color = EraserFillColor
		live.FillOpacity = EraserFillOpacity
	}

	s.drawing = true
	s.pointerID = ev.PointerID
	s.live = live
	s.livePath, _ = stroke.RenderPath(live.Points, s.options(live.Tool))
	return true
}

// PointerMove appends a point to the live stroke. Events from other
// pointers and zero-distance moves are ignored.
func (s *Surface) PointerMove(ev PointerEvent, rect Rect, m placement.DrawLayerMetrics) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing || ev.PointerID != s.pointerID {
		return false
	}

	p := ToBoardPoint(ev, rect, m)
	last := s.live.Points[len(s.live.Points)-1]
	if last.X == p.X && last.Y == p.Y {
		return false
	}

	s.live.Points = append(s.live.Points, p)
	s.livePath, _ = stroke.RenderPath(s.live.Points, s.options(s.live.Tool))
	return true
}

// PointerUp finalizes the stroke owned by pointerID.
func (s *Surface) PointerUp(pointerID int) (*models.DrawPath, bool) {
	return s.finishPointer(pointerID)
}

// PointerCancel finalizes like PointerUp; a cancelled gesture still keeps
// the ink drawn so far.
func (s *Surface) PointerCancel(pointerID int) (*models.DrawPath, bool) {
	return s.finishPointer(pointerID)
}

// LostCapture finalizes when the pointer capture is taken away.
func (s *Surface) LostCapture(pointerID int) (*models.DrawPath, bool) {
	return s.finishPointer(pointerID)
}

// Blur finalizes any stroke when the window loses focus.
func (s *Surface) Blur() (*models.DrawPath, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked()
}

func (s *Surface) finishPointer(pointerID int) (*models.DrawPath, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing || pointerID != s.pointerID {
		return nil, false
	}
	return s.finishLocked()
}

// finishLocked ends the gesture and commits it if it passes the filter.
func (s *Surface) finishLocked() (*models.DrawPath, bool) {
	if !s.drawing {
		return nil, false
	}

	live := s.live
	s.drawing = false
	s.pointerID = 0
	s.live = nil
	s.livePath = ""

	if live == nil || !ShouldCommit(live.Points, s.opts.MinStrokeDistance) {
		return nil, false
	}

	d, ok := stroke.RenderPath(live.Points, s.options(live.Tool))
	if !ok {
		return nil, false
	}

	path := models.DrawPath{
		ID:          s.opts.NewID(),
		D:           d,
		Color:       live.Color,
		FillOpacity: live.FillOpacity,
	}
	s.committed = append(s.committed, path)
	return &path, true
}

// Live returns a copy of the stroke in progress and its rendered path.
func (s *Surface) Live() (*LiveStroke, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing || s.live == nil {
		return nil, "", false
	}
	cp := *s.live
	cp.Points = append([]models.Point(nil), s.live.Points...)
	return &cp, s.livePath, true
}

// Committed returns the committed strokes in drawing order.
func (s *Surface) Committed() []models.DrawPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DrawPath(nil), s.committed...)
}
