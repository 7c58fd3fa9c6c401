package signal

import (
	"strings"

	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/surface"
)

// DesktopMinWidth is the narrowest viewport with keyboard slide navigation.
const DesktopMinWidth = 1024.0

// KeyEvent is a key press forwarded by the client.
type KeyEvent struct {
	Key              string            `json:"key"`
	Alt              bool              `json:"altKey,omitempty"`
	Ctrl             bool              `json:"ctrlKey,omitempty"`
	Meta             bool              `json:"metaKey,omitempty"`
	Shift            bool              `json:"shiftKey,omitempty"`
	Repeat           bool              `json:"repeat,omitempty"`
	DefaultPrevented bool              `json:"defaultPrevented,omitempty"`
	Target           []surface.Element `json:"target,omitempty"`
}

// Slide is a navigable section and its scroll offset.
type Slide struct {
	AnchorID string  `json:"anchorId"`
	StartY   float64 `json:"startY"`
}

// Action is what the client should do in response to a key press.
type Action struct {
	// Handled means the client should prevent the default key behavior.
	Handled bool `json:"handled"`
	// Skipped means the press finished the current section's entrance.
	Skipped bool `json:"skipped,omitempty"`
	// ScrollTo is set when the client should scroll to a slide.
	ScrollTo *float64 `json:"scrollTo,omitempty"`
	Index    int      `json:"index"`
}

var interactiveTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
}

// IsInteractiveTarget reports whether a key press belongs to a form
// control or dialog rather than to slide navigation.
func IsInteractiveTarget(path []surface.Element) bool {
	for _, el := range path {
		if interactiveTags[strings.ToLower(el.Tag)] || el.ContentEditable {
			return true
		}
		if el.HasClass("pswp") || el.Role == "dialog" {
			return true
		}
	}
	return false
}

// SlideNavigator turns key presses into skip requests or scroll targets.
type SlideNavigator struct {
	bus *Bus
}

// NewSlideNavigator creates a navigator publishing on bus.
func NewSlideNavigator(bus *Bus) *SlideNavigator {
	return &SlideNavigator{bus: bus}
}

// HandleKey decides the response to ev given the viewport width, the
// current scroll position and the slide list in document order. A forward
// press first offers the current slide a chance to finish its entrance.
func (n *SlideNavigator) HandleKey(ev KeyEvent, viewportWidth, scrollY float64, slides []Slide) Action {
	if ev.DefaultPrevented || ev.Repeat {
		return Action{}
	}
	dir := reveal.NavigationDirection(ev.Key)
	if dir == reveal.None {
		return Action{}
	}
	if ev.Alt || ev.Ctrl || ev.Meta || ev.Shift || viewportWidth < DesktopMinWidth || IsInteractiveTarget(ev.Target) {
		return Action{}
	}
	if len(slides) < 2 {
		return Action{}
	}

	offsets := make([]float64, len(slides))
	for i, s := range slides {
		offsets[i] = s.StartY
	}
	current := reveal.ResolveCurrentIndex(scrollY, offsets)

	if dir == reveal.Forward && n.bus.RequestSkip(slides[current].AnchorID) {
		return Action{Handled: true, Skipped: true, Index: current}
	}

	next := reveal.NextIndex(current, dir, len(slides))
	if next == current {
		return Action{Index: current}
	}
	y := slides[next].StartY
	return Action{Handled: true, ScrollTo: &y, Index: next}
}
