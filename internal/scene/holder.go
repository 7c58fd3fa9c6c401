package scene

import (
	"sync"
	"sync/atomic"
)

// Holder publishes the current scene to concurrent readers. The server
// swaps in a fresh scene when the file changes on disk.
type Holder struct {
	current atomic.Pointer[Scene]

	mu        sync.Mutex
	listeners []func(*Scene)
}

// NewHolder creates a holder seeded with sc, which may be nil.
func NewHolder(sc *Scene) *Holder {
	h := &Holder{}
	if sc != nil {
		h.current.Store(sc)
	}
	return h
}

// Scene returns the current scene, or nil before one was loaded.
func (h *Holder) Scene() *Scene {
	return h.current.Load()
}

// Store replaces the current scene and notifies listeners of a non-nil
// scene.
func (h *Holder) Store(sc *Scene) {
	h.current.Store(sc)
	if sc == nil {
		return
	}
	h.mu.Lock()
	listeners := append(([]func(*Scene))(nil), h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(sc)
	}
}

// OnChange registers fn to run after every Store of a scene.
func (h *Holder) OnChange(fn func(*Scene)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}
