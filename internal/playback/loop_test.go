package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsUntilSettled(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 100, 0)})

	clock := NewFakeClock(0)
	var frames atomic.Int32
	loop := NewLoop(s, clock, 0, func(bool) { frames.Add(1) })

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	var runErr error
	require.Eventually(t, func() bool {
		clock.Advance(50)
		select {
		case runErr = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, runErr)

	assert.Equal(t, 100, s.Visible("a"))
	assert.GreaterOrEqual(t, frames.Load(), int32(2))
}

func TestLoop_StopsOnCancel(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 100, 1e9)})

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(s, NewFakeClock(0), time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRealClock_Monotonic(t *testing.T) {
	c := NewRealClock()
	a := c.NowMs()
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, c.NowMs(), a)
}
