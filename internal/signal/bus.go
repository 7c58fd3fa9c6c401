// Package signal carries skip-reveal requests from navigation to the
// sections that can honor them.
package signal

import (
	"sync"

	"github.com/inkboard/backend/internal/reveal"
)

// Request asks the section identified by AnchorID to finish its entrance.
// A listener that honors it sets Handled.
type Request struct {
	AnchorID string
	Handled  bool
}

// Listener receives every request. It must not claim a request that is
// already handled.
type Listener func(*Request)

// Bus broadcasts requests to every subscriber in subscription order.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// RequestSkip broadcasts a request for anchorID and reports whether any
// listener handled it.
func (b *Bus) RequestSkip(anchorID string) bool {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	req := &Request{AnchorID: anchorID}
	for _, fn := range listeners {
		fn(req)
	}
	return req.Handled
}

// GateListener lets a reveal gate claim requests for its anchor.
func GateListener(g *reveal.Gate) Listener {
	return func(req *Request) {
		if req.Handled || req.AnchorID != g.AnchorID() {
			return
		}
		if g.Claim(req.AnchorID) {
			req.Handled = true
		}
	}
}
