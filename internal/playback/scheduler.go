package playback

import "sync"

// Scheduler owns the reveal state of a board's presets together with the
// play-once memory that outlives layout changes.
type Scheduler struct {
	mu         sync.RWMutex
	state      State
	played     map[string]bool
	skipActive bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{played: make(map[string]bool)}
}

// Reset restarts the reveal for a new set of prepared presets. Play-once
// presets that already finished are shown in full; the rest start hidden.
// Elapsed time and delay overrides are cleared, and when skip is active
// every animating preset starts immediately.
func (s *Scheduler) Reset(tracks []Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[string]bool, len(tracks))
	entries := make([]Entry, 0, len(tracks))
	animating := false

	for _, t := range tracks {
		active[t.ID] = true
		e := Entry{ID: t.ID, TotalPoints: t.TotalPoints, Timing: t.Timing}

		switch {
		case t.TotalPoints == 0:
		case t.Timing.PlayOnce && s.played[t.ID]:
			e.Visible = t.TotalPoints
		default:
			e.Animating = true
			animating = true
			if s.skipActive {
				zero := 0.0
				e.DelayOverrideMs = &zero
			}
		}
		entries = append(entries, e)
	}

	for id := range s.played {
		if !active[id] {
			delete(s.played, id)
		}
	}

	s.state = State{Entries: entries, Running: animating}
}

// Step advances to nowMs and reports whether any reveal is still running.
func (s *Scheduler) Step(nowMs float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Running {
		return false
	}

	next, finished := Advance(s.state, nowMs)
	for _, id := range finished {
		s.played[id] = true
	}
	s.state = next
	return next.Running
}

// Skip pulls every preset that has not started yet forward to start now.
// Presets already revealing, finished, or already overridden are left
// alone, which makes repeated calls harmless. It returns how many presets
// were affected.
func (s *Scheduler) Skip() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.skipActive = true
	affected := 0
	for i := range s.state.Entries {
		e := &s.state.Entries[i]
		if e.TotalPoints == 0 || e.Visible > 0 || s.played[e.ID] || e.DelayOverrideMs != nil {
			continue
		}
		elapsed := s.state.ElapsedMs
		e.DelayOverrideMs = &elapsed
		affected++
	}
	return affected
}

// SkipActive reports whether Skip has been requested.
func (s *Scheduler) SkipActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipActive
}

// Running reports whether a reveal is still in progress.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Running
}

// Visible returns the visible point count of a preset.
func (s *Scheduler) Visible(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.state.Entries {
		if e.ID == id {
			return e.Visible
		}
	}
	return 0
}

// VisibleCounts returns the visible point count of every preset.
func (s *Scheduler) VisibleCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.state.Entries))
	for _, e := range s.state.Entries {
		out[e.ID] = e.Visible
	}
	return out
}

// Played reports whether a play-once preset has finished at least once.
func (s *Scheduler) Played(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.played[id]
}

// Snapshot returns a copy of the current state.
func (s *Scheduler) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}
