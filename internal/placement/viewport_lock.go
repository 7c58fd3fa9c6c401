package placement

import (
	"math"
	"sync"
)

// Fallback viewport used when the client reports nothing usable.
const (
	FallbackViewportWidth  = 1440
	FallbackViewportHeight = 900
)

// ViewportLock captures the first viewport size of a client and keeps it
// for the lifetime of the board, so later browser chrome changes do not
// reflow the layout.
type ViewportLock struct {
	mu             sync.RWMutex
	fallbackWidth  float64
	fallbackHeight float64
	width          float64
	height         float64
	locked         bool
}

// NewViewportLock creates an unlocked lock. Non-positive fallbacks use the
// package defaults.
func NewViewportLock(fallbackWidth, fallbackHeight float64) *ViewportLock {
	if !(fallbackWidth > 0) {
		fallbackWidth = FallbackViewportWidth
	}
	if !(fallbackHeight > 0) {
		fallbackHeight = FallbackViewportHeight
	}
	return &ViewportLock{fallbackWidth: fallbackWidth, fallbackHeight: fallbackHeight}
}

func clampDimension(v, fallback float64) float64 {
	if !finite(v) || v <= 0 {
		return fallback
	}
	return v
}

// Initialize locks the viewport on first call and reports whether this
// call performed the lock. largeHeight is the large-viewport height when
// the client can measure it, otherwise 0.
func (l *ViewportLock) Initialize(width, height, largeHeight float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return false
	}

	initial := clampDimension(height, l.fallbackHeight)
	if !finite(largeHeight) || largeHeight <= 0 {
		largeHeight = 0
	}
	l.height = clampDimension(math.Max(initial, largeHeight), l.fallbackHeight)
	l.width = clampDimension(width, l.fallbackWidth)
	l.locked = true
	return true
}

// Reset unlocks so the next Initialize captures a fresh size.
func (l *ViewportLock) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = false
	l.width, l.height = 0, 0
}

// Locked reports whether a size has been captured.
func (l *ViewportLock) Locked() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.locked
}

// Width returns the locked width, or the fallback before locking.
func (l *ViewportLock) Width() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.locked {
		return l.fallbackWidth
	}
	return l.width
}

// Height returns the locked height, or the fallback before locking.
func (l *ViewportLock) Height() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.locked {
		return l.fallbackHeight
	}
	return l.height
}
