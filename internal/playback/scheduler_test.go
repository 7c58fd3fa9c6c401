package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func track(id string, points int, delayMs float64) Track {
	timing := DefaultTiming
	timing.DelayMs = delayMs
	return Track{ID: id, TotalPoints: points, Timing: timing}
}

func TestScheduler_RevealsAfterDelay(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 100, 0), track("b", 100, 1000), track("empty", 0, 0)})
	require.True(t, s.Running())

	assert.True(t, s.Step(1000))
	assert.Equal(t, 0, s.Visible("a"), "first frame latches start")

	assert.True(t, s.Step(1065.625))
	assert.Equal(t, 50, s.Visible("a"))
	assert.Equal(t, 0, s.Visible("b"))
	assert.Equal(t, 0, s.Visible("empty"))

	assert.True(t, s.Step(1200))
	assert.Equal(t, 100, s.Visible("a"))
	assert.True(t, s.Played("a"))
	assert.False(t, s.Played("b"))

	snap := s.Snapshot()
	assert.Equal(t, 200.0, snap.ElapsedMs)
	assert.Equal(t, PhaseCompleted, snap.Entries[0].Phase(snap.ElapsedMs))
	assert.Equal(t, PhaseDelaying, snap.Entries[1].Phase(snap.ElapsedMs))
	assert.Equal(t, PhaseIdle, snap.Entries[2].Phase(snap.ElapsedMs))
}

func TestScheduler_SkipStartsPendingNow(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 100, 0), track("b", 100, 1000)})
	s.Step(1000)
	s.Step(1200)

	assert.Equal(t, 1, s.Skip())
	once := s.Snapshot()
	assert.Equal(t, 0, s.Skip(), "skip is idempotent")
	assert.Equal(t, once, s.Snapshot())
	assert.True(t, s.SkipActive())

	snap := s.Snapshot()
	require.NotNil(t, snap.Entries[1].DelayOverrideMs)
	assert.Equal(t, 200.0, *snap.Entries[1].DelayOverrideMs)
	assert.Nil(t, snap.Entries[0].DelayOverrideMs)

	assert.True(t, s.Step(1265.625))
	assert.Equal(t, 50, s.Visible("b"))

	assert.False(t, s.Step(1400))
	assert.Equal(t, 100, s.Visible("b"))
	assert.False(t, s.Running())
	assert.False(t, s.Step(2000), "settled scheduler stays idle")
}

func TestScheduler_RepeatedSkipLeavesStateAlone(t *testing.T) {
	run := func(skips int) []State {
		s := NewScheduler()
		s.Reset([]Track{track("a", 100, 0), track("b", 40, 800), track("c", 100, 3000)})
		s.Step(0)
		s.Step(300)
		for i := 0; i < skips; i++ {
			s.Skip()
		}
		var states []State
		for _, now := range []float64{350, 500, 900, 4000} {
			s.Step(now)
			states = append(states, s.Snapshot())
		}
		return states
	}

	assert.Equal(t, run(1), run(2))
	assert.Equal(t, run(1), run(5))
}

func TestScheduler_SkipBeforeFirstFrame(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("late", 100, 5000)})
	assert.Equal(t, 1, s.Skip())

	s.Step(300)
	assert.False(t, s.Step(300+131.25))
	assert.Equal(t, 100, s.Visible("late"))
}

func TestScheduler_PlayOnceSurvivesReset(t *testing.T) {
	s := NewScheduler()
	tracks := []Track{track("once", 100, 0)}
	replay := track("again", 100, 0)
	replay.Timing.PlayOnce = false
	tracks = append(tracks, replay)

	s.Reset(tracks)
	s.Step(0)
	s.Step(500)
	assert.True(t, s.Played("once"))
	assert.False(t, s.Played("again"))

	s.Reset(tracks)
	assert.Equal(t, 100, s.Visible("once"))
	assert.Equal(t, 0, s.Visible("again"))
	assert.True(t, s.Running())

	snap := s.Snapshot()
	assert.False(t, snap.Entries[0].Animating)
	assert.True(t, snap.Entries[1].Animating)
	assert.Equal(t, 0.0, snap.ElapsedMs)
}

func TestScheduler_ResetForgetsRemovedPresets(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 10, 0)})
	s.Step(0)
	s.Step(1000)
	require.True(t, s.Played("a"))

	s.Reset(nil)
	assert.False(t, s.Running())
	assert.False(t, s.Played("a"))

	s.Reset([]Track{track("a", 10, 0)})
	assert.True(t, s.Running())
	assert.Equal(t, 0, s.Visible("a"))
}

func TestScheduler_ResetWhileSkipping(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("a", 100, 0)})
	s.Skip()

	s.Reset([]Track{track("a", 100, 0), track("b", 50, 900)})
	snap := s.Snapshot()
	for _, e := range snap.Entries {
		require.NotNil(t, e.DelayOverrideMs, e.ID)
		assert.Equal(t, 0.0, *e.DelayOverrideMs)
	}
}

func TestScheduler_NothingToAnimate(t *testing.T) {
	s := NewScheduler()
	s.Reset([]Track{track("empty", 0, 0)})
	assert.False(t, s.Running())
	assert.False(t, s.Step(10))
	assert.Equal(t, map[string]int{"empty": 0}, s.VisibleCounts())
}

func TestAdvance_IsPure(t *testing.T) {
	start := State{Entries: []Entry{{ID: "a", TotalPoints: 10, Timing: DefaultTiming, Animating: true}}, Running: true}

	next, finished := Advance(start, 50)
	assert.False(t, start.Started)
	assert.Equal(t, 0, start.Entries[0].Visible)
	assert.True(t, next.Started)
	assert.Empty(t, finished)

	done, finished := Advance(next, 50+AnimationDurationMs(10, DefaultTiming))
	assert.Equal(t, []string{"a"}, finished)
	assert.Equal(t, 10, done.Entries[0].Visible)
	assert.False(t, done.Running)
	assert.Equal(t, 0, next.Entries[0].Visible)
}
