package signal

import (
	"testing"

	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SingleClaimant(t *testing.T) {
	bus := NewBus()
	var seen []string
	claims := 0

	claim := func(name string) Listener {
		return func(req *Request) {
			seen = append(seen, name)
			if req.Handled || req.AnchorID != "about" {
				return
			}
			claims++
			req.Handled = true
		}
	}
	bus.Subscribe(claim("first"))
	bus.Subscribe(claim("second"))

	assert.True(t, bus.RequestSkip("about"))
	assert.Equal(t, []string{"first", "second"}, seen)
	assert.Equal(t, 1, claims)

	assert.False(t, bus.RequestSkip("contact"))
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(*Request) { calls++ })

	bus.RequestSkip("x")
	unsubscribe()
	unsubscribe()
	bus.RequestSkip("x")
	assert.Equal(t, 1, calls)
}

func TestGateListener(t *testing.T) {
	bus := NewBus()
	skipped := 0
	gate := reveal.NewGate("about", 2000, func() { skipped++ })
	bus.Subscribe(GateListener(gate))

	assert.False(t, bus.RequestSkip("about"))

	gate.Reveal(0)
	assert.True(t, bus.RequestSkip("about"))
	assert.False(t, bus.RequestSkip("about"))
	assert.Equal(t, 1, skipped)
}

func TestSlideNavigator(t *testing.T) {
	slides := []Slide{{AnchorID: "hero", StartY: 0}, {AnchorID: "about", StartY: 900}, {AnchorID: "contact", StartY: 1800}}

	t.Run("forward skips an in-progress reveal first", func(t *testing.T) {
		bus := NewBus()
		gate := reveal.NewGate("about", 2000, nil)
		bus.Subscribe(GateListener(gate))
		gate.Reveal(0)
		nav := NewSlideNavigator(bus)

		action := nav.HandleKey(KeyEvent{Key: "ArrowDown"}, 1280, 900, slides)
		assert.True(t, action.Handled)
		assert.True(t, action.Skipped)
		assert.Nil(t, action.ScrollTo)
		assert.Equal(t, 1, action.Index)

		action = nav.HandleKey(KeyEvent{Key: " "}, 1280, 900, slides)
		assert.True(t, action.Handled)
		require.NotNil(t, action.ScrollTo)
		assert.Equal(t, 1800.0, *action.ScrollTo)
		assert.Equal(t, 2, action.Index)
	})

	t.Run("backward never skips", func(t *testing.T) {
		bus := NewBus()
		gate := reveal.NewGate("about", 2000, nil)
		bus.Subscribe(GateListener(gate))
		gate.Reveal(0)

		action := NewSlideNavigator(bus).HandleKey(KeyEvent{Key: "ArrowUp"}, 1280, 950, slides)
		require.NotNil(t, action.ScrollTo)
		assert.Equal(t, 0.0, *action.ScrollTo)
		assert.True(t, gate.InProgress())
	})

	t.Run("clamped at the ends", func(t *testing.T) {
		nav := NewSlideNavigator(NewBus())
		action := nav.HandleKey(KeyEvent{Key: "ArrowRight"}, 1280, 4000, slides)
		assert.False(t, action.Handled)
		assert.Equal(t, 2, action.Index)
	})

	t.Run("ignored presses", func(t *testing.T) {
		nav := NewSlideNavigator(NewBus())
		cases := []struct {
			name   string
			ev     KeyEvent
			width  float64
			slides []Slide
		}{
			{"modifier", KeyEvent{Key: "ArrowDown", Shift: true}, 1280, slides},
			{"repeat", KeyEvent{Key: "ArrowDown", Repeat: true}, 1280, slides},
			{"other key", KeyEvent{Key: "Enter"}, 1280, slides},
			{"narrow viewport", KeyEvent{Key: "ArrowDown"}, 1023, slides},
			{"form control", KeyEvent{Key: " ", Target: []surface.Element{{Tag: "INPUT"}}}, 1280, slides},
			{"dialog", KeyEvent{Key: " ", Target: []surface.Element{{Tag: "div"}, {Tag: "div", Role: "dialog"}}}, 1280, slides},
			{"single slide", KeyEvent{Key: "ArrowDown"}, 1280, slides[:1]},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, Action{}, nav.HandleKey(tc.ev, tc.width, 0, tc.slides))
			})
		}
	})
}
