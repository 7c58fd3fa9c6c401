package playback

import (
	"math"

	"github.com/inkboard/backend/internal/models"
)

// Phase is the reveal stage of one preset.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDelaying  Phase = "delaying"
	PhaseRevealing Phase = "revealing"
	PhaseCompleted Phase = "completed"
)

// Track is what the scheduler needs to know about a prepared preset.
type Track struct {
	ID          string
	TotalPoints int
	Timing      models.ResolvedTiming
}

// Entry is the animation state of one preset.
type Entry struct {
	ID          string                `json:"id" msgpack:"id"`
	TotalPoints int                   `json:"totalPoints" msgpack:"totalPoints"`
	Timing      models.ResolvedTiming `json:"timing" msgpack:"timing"`
	// Animating is false for presets shown in full without a reveal.
	Animating       bool     `json:"animating" msgpack:"animating"`
	Visible         int      `json:"visible" msgpack:"visible"`
	DelayOverrideMs *float64 `json:"delayOverrideMs,omitempty" msgpack:"delayOverrideMs,omitempty"`
}

// EffectiveDelayMs is the delay in force, honoring a skip override.
func (e Entry) EffectiveDelayMs() float64 {
	if e.DelayOverrideMs != nil {
		return *e.DelayOverrideMs
	}
	return e.Timing.DelayMs
}

// Phase classifies the entry at the given elapsed time.
func (e Entry) Phase(elapsedMs float64) Phase {
	switch {
	case e.TotalPoints == 0:
		return PhaseIdle
	case e.Visible >= e.TotalPoints:
		return PhaseCompleted
	case elapsedMs-e.EffectiveDelayMs() <= 0:
		return PhaseDelaying
	default:
		return PhaseRevealing
	}
}

// State is the whole scheduler state advanced once per frame.
type State struct {
	Entries     []Entry `json:"entries" msgpack:"entries"`
	Started     bool    `json:"started" msgpack:"started"`
	StartedAtMs float64 `json:"startedAtMs" msgpack:"startedAtMs"`
	ElapsedMs   float64 `json:"elapsedMs" msgpack:"elapsedMs"`
	Running     bool    `json:"running" msgpack:"running"`
}

func (s State) clone() State {
	out := s
	out.Entries = make([]Entry, len(s.Entries))
	copy(out.Entries, s.Entries)
	return out
}

// Advance computes the state at nowMs. The first call latches the start
// time, so every entry is measured against one shared elapsed value. It
// also returns the ids of play-once presets that finished on this frame.
func Advance(s State, nowMs float64) (State, []string) {
	next := s.clone()
	if !next.Started {
		next.Started = true
		next.StartedAtMs = nowMs
	}
	next.ElapsedMs = nowMs - next.StartedAtMs

	inProgress := false
	var finished []string

	for i := range next.Entries {
		e := &next.Entries[i]

		if e.TotalPoints == 0 {
			e.Visible = 0
			continue
		}
		if !e.Animating {
			e.Visible = e.TotalPoints
			continue
		}

		afterDelay := next.ElapsedMs - e.EffectiveDelayMs()
		if afterDelay <= 0 {
			e.Visible = 0
			inProgress = true
			continue
		}

		progress := clamp(afterDelay/AnimationDurationMs(e.TotalPoints, e.Timing), 0, 1)
		if math.IsNaN(progress) {
			progress = 1
		}
		e.Visible = VisiblePointCount(EaseMostlyLinear(progress, e.Timing.EaseRampRatio), e.TotalPoints)

		if progress < 1 {
			inProgress = true
			continue
		}
		if e.Timing.PlayOnce {
			finished = append(finished, e.ID)
		}
	}

	next.Running = inProgress
	return next, finished
}
