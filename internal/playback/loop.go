package playback

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// Stepper is anything that advances to a timestamp and reports whether it
// still needs frames.
type Stepper interface {
	Step(nowMs float64) bool
}

// Loop drives a Stepper from a clock until it settles or ctx ends.
type Loop struct {
	target   Stepper
	clock    Clock
	interval time.Duration
	onFrame  func(running bool)
}

// NewLoop builds a loop. A zero interval uses DefaultFrameInterval and a
// nil onFrame is allowed.
func NewLoop(target Stepper, clock Clock, interval time.Duration, onFrame func(running bool)) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if onFrame == nil {
		onFrame = func(bool) {}
	}
	return &Loop{target: target, clock: clock, interval: interval, onFrame: onFrame}
}

// Run blocks until the target stops running or ctx is cancelled. It
// returns ctx.Err() on cancellation and nil when the reveal finished.
func (l *Loop) Run(ctx context.Context) error {
	ticks, stop := l.clock.Ticker(l.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			running := l.target.Step(l.clock.NowMs())
			l.onFrame(running)
			if !running {
				return nil
			}
		}
	}
}
