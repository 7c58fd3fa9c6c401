package whiteboard

import (
	"context"
	"time"
)

// DefaultMeasureInterval approximates one display frame between attempts.
const DefaultMeasureInterval = 16 * time.Millisecond

// SizeFunc reports the current surface size.
type SizeFunc func() (width, height float64)

// MeasureWithRetry polls size until the board measures at least one pixel
// each way, maxAttempts is exhausted, or ctx is done. Zero maxAttempts uses
// DefaultMaxMeasureAttempts.
func (b *Board) MeasureWithRetry(ctx context.Context, size SizeFunc, maxAttempts int, interval time.Duration) (bool, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxMeasureAttempts
	}
	if interval <= 0 {
		interval = DefaultMeasureInterval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}

		if b.Measure(size()) {
			return true, nil
		}
		if attempt >= maxAttempts {
			return false, nil
		}
		timer.Reset(interval)
	}
}
