package reveal

import "sync"

// Gate tracks whether a section's entrance is still playing so a forward
// navigation can finish it instead of leaving the section.
type Gate struct {
	mu         sync.Mutex
	anchorID   string
	durationMs float64
	onSkip     func()

	revealed   bool
	revealedAt float64
	skipped    bool
}

// NewGate creates a hidden gate for a section. onSkip, if set, runs once
// each time skip becomes active.
func NewGate(anchorID string, durationMs float64, onSkip func()) *Gate {
	return &Gate{anchorID: anchorID, durationMs: durationMs, onSkip: onSkip}
}

// AnchorID identifies the section.
func (g *Gate) AnchorID() string {
	return g.anchorID
}

// Reveal marks the section visible at nowMs. A section with nothing to
// animate skips at once.
func (g *Gate) Reveal(nowMs float64) {
	g.mu.Lock()
	if g.revealed {
		g.mu.Unlock()
		return
	}
	g.revealed = true
	g.revealedAt = nowMs
	fire := false
	if g.durationMs <= 0 {
		fire = g.activateLocked()
	}
	g.mu.Unlock()

	if fire {
		g.fireSkip()
	}
}

// Hide resets the gate.
func (g *Gate) Hide() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revealed = false
	g.skipped = false
}

// Tick activates skip once the full duration has elapsed.
func (g *Gate) Tick(nowMs float64) {
	g.mu.Lock()
	fire := false
	if g.revealed && !g.skipped && nowMs-g.revealedAt >= g.durationMs {
		fire = g.activateLocked()
	}
	g.mu.Unlock()

	if fire {
		g.fireSkip()
	}
}

// InProgress reports whether the entrance is still playing.
func (g *Gate) InProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revealed && !g.skipped
}

// Skipped reports whether skip is active.
func (g *Gate) Skipped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.skipped
}

// Claim activates skip for anchorID if the entrance is in progress. It
// reports whether the request was handled here.
func (g *Gate) Claim(anchorID string) bool {
	g.mu.Lock()
	if anchorID != g.anchorID || !g.revealed || g.skipped {
		g.mu.Unlock()
		return false
	}
	g.activateLocked()
	g.mu.Unlock()

	g.fireSkip()
	return true
}

// Skip activates skip unconditionally, as the on-screen skip control does.
func (g *Gate) Skip() bool {
	g.mu.Lock()
	fire := g.activateLocked()
	g.mu.Unlock()

	if fire {
		g.fireSkip()
	}
	return fire
}

func (g *Gate) activateLocked() bool {
	if g.skipped {
		return false
	}
	g.skipped = true
	return true
}

func (g *Gate) fireSkip() {
	if g.onSkip != nil {
		g.onSkip()
	}
}
