package reveal

import (
	"math"
	"sync"
)

// DefaultRowDurationMs is how long one slide row takes to fade in.
const DefaultRowDurationMs = 520.0

// RowItem is the fixed entrance every slide row uses.
var RowItem = ItemConfig{
	Start:  0,
	End:    1,
	Easing: EaseOutCubic,
	From:   &StyleState{Opacity: f(0), Y: f(24), Blur: f(6)},
	To:     &StyleState{Opacity: f(1), Y: f(0), Blur: f(0)},
}

func f(v float64) *float64 { return &v }

// Row is one staggered line of a slide.
type Row struct {
	ID      string  `json:"id" yaml:"id"`
	DelayMs float64 `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// SlideConfig is an ordered list of rows.
type SlideConfig struct {
	ID   string `json:"id" yaml:"id"`
	Rows []Row  `json:"rows" yaml:"rows"`
}

// RowDelayMs is the configured delay floored at zero; non-finite is zero.
func (r Row) RowDelayMs() float64 {
	if math.IsNaN(r.DelayMs) || math.IsInf(r.DelayMs, 0) {
		return 0
	}
	return math.Max(r.DelayMs, 0)
}

// RowProgress is the raw progress of a row. When skipActivatedAt is set,
// rows that had not started by then start at the activation time instead
// of their own delay; rows already under way are unaffected.
func RowProgress(elapsedMs, rowDelayMs, durationMs float64, skipActivatedAt *float64) float64 {
	delay := math.Max(rowDelayMs, 0)
	if skipActivatedAt != nil && *skipActivatedAt < delay {
		delay = *skipActivatedAt
	}
	return Clamp((elapsedMs-delay)/math.Max(durationMs, 1), 0, 1)
}

// EstimateSlideDurationMs is the longest row delay plus one row duration.
func EstimateSlideDurationMs(s SlideConfig, rowDurationMs float64) float64 {
	maxDelay := 0.0
	for _, r := range s.Rows {
		maxDelay = math.Max(maxDelay, r.RowDelayMs())
	}
	return maxDelay + math.Max(rowDurationMs, 0)
}

// RowState is the rendered state of one row.
type RowState struct {
	ID       string        `json:"id"`
	Progress float64       `json:"progress"`
	Started  bool          `json:"started"`
	Revealed bool          `json:"revealed"`
	Style    ResolvedStyle `json:"style"`
}

// Sequence runs the staggered reveal of one slide.
type Sequence struct {
	mu            sync.Mutex
	slide         SlideConfig
	rowDurationMs float64

	revealed  bool
	startedAt float64
	elapsed   float64
	skipAt    *float64
}

// NewSequence creates a hidden sequence. Non-positive durations use
// DefaultRowDurationMs.
func NewSequence(slide SlideConfig, rowDurationMs float64) *Sequence {
	if rowDurationMs <= 0 {
		rowDurationMs = DefaultRowDurationMs
	}
	return &Sequence{slide: slide, rowDurationMs: rowDurationMs}
}

// Reveal starts the sequence clock at nowMs.
func (s *Sequence) Reveal(nowMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed = true
	s.startedAt = nowMs
	s.elapsed = 0
}

// Hide returns every row to its initial state and clears skip.
func (s *Sequence) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed = false
	s.elapsed = 0
	s.skipAt = nil
}

// Tick updates the elapsed time.
func (s *Sequence) Tick(nowMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed {
		s.elapsed = nowMs - s.startedAt
	}
}

// Skip latches the activation time. It is a no-op while hidden or when
// skip is already active.
func (s *Sequence) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.revealed || s.skipAt != nil {
		return false
	}
	at := s.elapsed
	s.skipAt = &at
	return true
}

// Rows returns the state of every row at the last tick.
func (s *Sequence) Rows() []RowState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RowState, 0, len(s.slide.Rows))
	for _, r := range s.slide.Rows {
		progress := 0.0
		if s.revealed {
			progress = RowProgress(s.elapsed, r.RowDelayMs(), s.rowDurationMs, s.skipAt)
		}
		item := RowItem
		item.ID = r.ID
		out = append(out, RowState{
			ID:       r.ID,
			Progress: progress,
			Started:  progress > 0,
			Revealed: progress >= 0.999,
			Style:    Interpolate(progress, item),
		})
	}
	return out
}

// Revealed reports whether the sequence clock is running.
func (s *Sequence) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Settled reports whether no row is still moving. A hidden sequence is
// settled.
func (s *Sequence) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.revealed {
		return true
	}
	for _, r := range s.slide.Rows {
		if RowProgress(s.elapsed, r.RowDelayMs(), s.rowDurationMs, s.skipAt) < 1 {
			return false
		}
	}
	return true
}

// DurationMs estimates the full sequence length.
func (s *Sequence) DurationMs() float64 {
	return EstimateSlideDurationMs(s.slide, s.rowDurationMs)
}
