package surface

import (
	"math"
	"strings"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
)

// Pointer types reported by the client.
const (
	PointerMouse = "mouse"
	PointerPen   = "pen"
	PointerTouch = "touch"
)

// Element describes one node on the path from the event target up to the
// document root.
type Element struct {
	Tag             string   `json:"tag"`
	Classes         []string `json:"classes,omitempty"`
	ContentEditable bool     `json:"contentEditable,omitempty"`
	Role            string   `json:"role,omitempty"`
}

// HasClass reports whether the element carries class c.
func (e Element) HasClass(c string) bool {
	for _, have := range e.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// PointerEvent carries the pointer fields the surface consumes.
type PointerEvent struct {
	ClientX     float64 `json:"clientX"`
	ClientY     float64 `json:"clientY"`
	Pressure    float64 `json:"pressure"`
	PointerID   int     `json:"pointerId"`
	PointerType string  `json:"pointerType"`
	Button      int     `json:"button"`
	// Target lists the event target first, then its ancestors.
	Target []Element `json:"target,omitempty"`
}

// Rect is the live bounding box of the drawing surface in client space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var nonDrawingTags = map[string]bool{
	"button":   true,
	"a":        true,
	"input":    true,
	"textarea": true,
	"select":   true,
	"summary":  true,
	"details":  true,
}

// lightbox overlays own their own gestures
const nonDrawingClass = "pswp"

// IsNonDrawingTarget reports whether any element on the target path is an
// interactive control that should keep its pointer events.
func IsNonDrawingTarget(path []Element) bool {
	for _, el := range path {
		if nonDrawingTags[strings.ToLower(el.Tag)] || el.ContentEditable || el.HasClass(nonDrawingClass) {
			return true
		}
	}
	return false
}

// ToBoardPoint converts a client-space pointer position into locked layout
// space by removing the surface origin and undoing the live transform.
func ToBoardPoint(ev PointerEvent, rect Rect, m placement.DrawLayerMetrics) models.Point {
	x, y := m.Invert(ev.ClientX-rect.Left, ev.ClientY-rect.Top)
	pressure := ev.Pressure
	if pressure == 0 || math.IsNaN(pressure) {
		pressure = models.DefaultPressure
	}
	return models.Point{X: x, Y: y, Pressure: pressure}
}

// ShouldCommit is the commit filter for a finished stroke. A single point
// is an intentional dot. Longer strokes must either travel at least
// minDistance between their ends or have more than two points.
func ShouldCommit(points []models.Point, minDistance float64) bool {
	switch len(points) {
	case 0:
		return false
	case 1:
		return true
	}
	first, last := points[0], points[len(points)-1]
	return math.Hypot(last.X-first.X, last.Y-first.Y) >= minDistance || len(points) > 2
}
