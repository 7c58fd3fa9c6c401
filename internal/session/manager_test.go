package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/testutil"
	"github.com/inkboard/backend/internal/whiteboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, maxSessions int) (*Manager, *playback.FakeClock) {
	t.Helper()
	clock := playback.NewFakeClock(1000)
	n := 0
	m := NewManager(Options{
		MaxSessions: maxSessions,
		Clock:       clock,
		NewID: func() string {
			n++
			return fmt.Sprintf("board-%d", n)
		},
	}, zap.NewNop())
	t.Cleanup(m.Shutdown)
	return m, clock
}

func helloPreset(delayMs float64) models.PresetConfig {
	return models.PresetConfig{
		ID:        "hello",
		Data:      testutil.SamplePreset(),
		Timing:    &models.TimingConfig{DelayMs: models.Float64(delayMs)},
		FillColor: "var(--color-slate-800)",
		Placement: models.PlacementConfig{YPct: models.Uniform(10), HeightPct: models.Uniform(20)},
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m, _ := newTestManager(t, 4)

	s, err := m.Create(CreateOptions{AnchorID: "hero", ViewportWidth: 1280, ToolID: "blue", Color: "var(--color-underline-blue)"})
	require.NoError(t, err)
	assert.Equal(t, "board-1", s.ID)
	assert.Equal(t, "blue", s.Board.ToolID())
	assert.Equal(t, 1, m.Count())

	got, err := m.Get("board-1")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.True(t, m.Touch("board-1"))
	assert.False(t, m.Touch("nope"))

	require.NoError(t, m.Delete("board-1"))
	_, err = m.Get("board-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, m.Delete("board-1"), ErrNotFound)
}

func TestManager_Capacity(t *testing.T) {
	m, _ := newTestManager(t, 1)

	first, err := m.Create(CreateOptions{})
	require.NoError(t, err)

	_, err = m.Create(CreateOptions{})
	assert.ErrorIs(t, err, ErrCapacity)

	first.mu.Lock()
	first.lastAccessed = time.Now().Add(-time.Hour)
	first.mu.Unlock()

	second, err := m.Create(CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())
	_, err = m.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(second.ID)
	assert.NoError(t, err)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	m, _ := newTestManager(t, 4)

	idle, _ := m.Create(CreateOptions{})
	watched, _ := m.Create(CreateOptions{})
	fresh, _ := m.Create(CreateOptions{})

	for _, s := range []*BoardSession{idle, watched} {
		s.mu.Lock()
		s.lastAccessed = time.Now().Add(-time.Hour)
		s.mu.Unlock()
	}
	_, cancel := watched.Subscribe()
	defer cancel()

	assert.Equal(t, 1, m.CleanupOldSessions(30*time.Minute))
	_, err := m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(watched.ID)
	assert.NoError(t, err)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func presetsLayer(f whiteboard.Frame) whiteboard.Layer {
	l, _ := f.Layer(whiteboard.LayerPresets)
	return l
}

func TestBoardSession_PlaybackStreamsFrames(t *testing.T) {
	m, clock := newTestManager(t, 4)
	s, err := m.Create(CreateOptions{AnchorID: "hero", Presets: []models.PresetConfig{helloPreset(0)}, IntroDurationMs: 500})
	require.NoError(t, err)
	require.True(t, s.Board.Measure(1600, 1000))

	frames, cancel, err := m.Subscribe(s.ID)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, m.StartPlayback(s.ID))
	assert.True(t, s.Gate.InProgress())

	var last whiteboard.Frame
	require.Eventually(t, func() bool {
		clock.Advance(50)
		select {
		case f := <-frames:
			last = f
		default:
		}
		return !s.Playing() && !last.Running && len(presetsLayer(last).Presets) == 1
	}, 2*time.Second, time.Millisecond)

	assert.Len(t, presetsLayer(last).Presets[0].Paths, 2)
}

func TestBoardSession_SkipThroughGate(t *testing.T) {
	m, clock := newTestManager(t, 4)
	s, err := m.Create(CreateOptions{AnchorID: "hero", Presets: []models.PresetConfig{helloPreset(60_000)}, IntroDurationMs: 60_131})
	require.NoError(t, err)
	require.True(t, s.Board.Measure(1600, 1000))
	s.StartPlayback()

	assert.True(t, s.Skip())
	assert.True(t, s.Gate.Skipped())
	assert.False(t, s.Bus.RequestSkip("hero"))

	require.Eventually(t, func() bool {
		clock.Advance(50)
		return !s.Playing()
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 5, s.Board.Playback().Entries[0].Visible)
}

func TestManager_LocksViewport(t *testing.T) {
	m, _ := newTestManager(t, 4)

	s, err := m.Create(CreateOptions{ViewportWidth: 390, ViewportHeight: 660, LargeViewportHeight: 760})
	require.NoError(t, err)
	assert.True(t, s.Viewport.Locked())
	assert.Equal(t, 390.0, s.Viewport.Width())
	assert.Equal(t, 760.0, s.Viewport.Height())

	fallback, err := m.Create(CreateOptions{ViewportWidth: -1})
	require.NoError(t, err)
	assert.Equal(t, float64(placement.FallbackViewportWidth), fallback.Viewport.Width())
	assert.Equal(t, float64(placement.FallbackViewportHeight), fallback.Viewport.Height())
}

func TestBoardSession_SlideRowsKeepLoopRunning(t *testing.T) {
	m, clock := newTestManager(t, 4)
	slide := reveal.SlideConfig{ID: "about", Rows: []reveal.Row{{ID: "title"}, {ID: "body", DelayMs: 400}}}
	s, err := m.Create(CreateOptions{AnchorID: "about", Slide: slide, RowDurationMs: 200, IntroDurationMs: 10_000})
	require.NoError(t, err)

	s.StartPlayback()
	assert.True(t, s.Rows.Revealed())
	assert.True(t, s.Playing())

	require.Eventually(t, func() bool {
		clock.Advance(50)
		return !s.Playing()
	}, 2*time.Second, time.Millisecond)

	rows := s.Rows.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Revealed)
	assert.True(t, rows[1].Revealed)
}

func TestBoardSession_SkipFinishesRows(t *testing.T) {
	m, _ := newTestManager(t, 4)
	slide := reveal.SlideConfig{ID: "about", Rows: []reveal.Row{{ID: "title", DelayMs: 5000}}}
	s, err := m.Create(CreateOptions{AnchorID: "about", Slide: slide, IntroDurationMs: 10_000})
	require.NoError(t, err)

	s.StartPlayback()
	assert.True(t, s.Skip())
	assert.False(t, s.Rows.Skip(), "gate skip already latched the rows")
}

func TestManager_RefreshPresets(t *testing.T) {
	m, clock := newTestManager(t, 4)
	hero, err := m.Create(CreateOptions{AnchorID: "hero", Presets: []models.PresetConfig{helloPreset(0)}})
	require.NoError(t, err)
	require.True(t, hero.Board.Measure(1600, 1000))
	other, err := m.Create(CreateOptions{AnchorID: "gone"})
	require.NoError(t, err)

	frames, cancel := hero.Subscribe()
	defer cancel()

	moved := helloPreset(0)
	moved.Placement.YPct = models.Uniform(60)
	lookup := func(anchorID string) ([]models.PresetConfig, bool) {
		if anchorID == "hero" {
			return []models.PresetConfig{moved}, true
		}
		return nil, false
	}

	assert.Equal(t, 1, m.RefreshPresets(lookup))
	assert.Equal(t, models.Uniform(60), hero.Board.Presets()[0].Placement.YPct)
	assert.Empty(t, other.Board.Presets())
	assert.True(t, hero.Playing())

	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("no frame after refresh")
	}

	require.Eventually(t, func() bool {
		clock.Advance(50)
		return !hero.Playing()
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 0, m.RefreshPresets(lookup))
}

func TestBoardSession_DeleteClosesSubscribers(t *testing.T) {
	m, _ := newTestManager(t, 4)
	s, _ := m.Create(CreateOptions{})

	frames, _ := s.Subscribe()
	s.Publish()
	_, ok := <-frames
	assert.True(t, ok)

	require.NoError(t, m.Delete(s.ID))
	_, ok = <-frames
	assert.False(t, ok)

	late, _ := s.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
