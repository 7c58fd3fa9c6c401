package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/signal"
	"github.com/inkboard/backend/internal/whiteboard"
	"go.uber.org/zap"
)

// DefaultMaxSessions limits concurrent boards to bound memory.
const DefaultMaxSessions = 64

// SessionKeepAliveWindow protects recently used boards from eviction.
const SessionKeepAliveWindow = 5 * time.Minute

var (
	// ErrNotFound is returned for unknown session ids.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when every slot is held by an active board.
	ErrCapacity = errors.New("too many active sessions")
)

// BoardDefaults carries the geometry settings applied to new boards.
type BoardDefaults struct {
	MobileBreakpoint  float64
	LayoutAspectRatio float64
	MinStrokeDistance float64
}

// Options configures a Manager.
type Options struct {
	MaxSessions   int
	FrameInterval time.Duration
	Board         BoardDefaults
	// Clock drives playback. Nil uses the wall clock.
	Clock playback.Clock
	// NewID names sessions. Nil uses random UUIDs.
	NewID func() string
}

// CreateOptions describes a new board. The viewport is locked at
// creation; LargeViewportHeight is the client's large-viewport height
// when it can measure one.
type CreateOptions struct {
	AnchorID            string
	ViewportWidth       float64
	ViewportHeight      float64
	LargeViewportHeight float64
	Slide               reveal.SlideConfig
	RowDurationMs       float64
	ToolID              string
	Color               string
	Presets             []models.PresetConfig
	IntroDurationMs     float64
}

// Manager owns the live board sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*BoardSession
	opts     Options
	log      *zap.Logger
}

// NewManager creates a session manager.
func NewManager(opts Options, log *zap.Logger) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = playback.DefaultFrameInterval
	}
	if opts.Clock == nil {
		opts.Clock = playback.NewRealClock()
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*BoardSession),
		opts:     opts,
		log:      log.Named("session"),
	}
}

// Create registers a new board session. At capacity the least recently
// used idle session is evicted first.
func (m *Manager) Create(opts CreateOptions) (*BoardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions && !m.evictOneLocked() {
		return nil, ErrCapacity
	}

	id := m.opts.NewID()
	viewport := placement.NewViewportLock(0, 0)
	viewport.Initialize(opts.ViewportWidth, opts.ViewportHeight, opts.LargeViewportHeight)

	board := whiteboard.New(whiteboard.Options{
		Presets:             opts.Presets,
		LayoutViewportWidth: viewport.Width(),
		MobileBreakpoint:    m.opts.Board.MobileBreakpoint,
		LayoutAspectRatio:   m.opts.Board.LayoutAspectRatio,
		MinStrokeDistance:   m.opts.Board.MinStrokeDistance,
	})
	if opts.ToolID != "" {
		board.SelectTool(opts.ToolID, opts.Color)
	}

	now := time.Now()
	s := &BoardSession{
		ID:        id,
		AnchorID:  opts.AnchorID,
		Board:     board,
		Viewport:  viewport,
		Rows:      reveal.NewSequence(opts.Slide, opts.RowDurationMs),
		Bus:       signal.NewBus(),
		CreatedAt: now,
		manager:   m,
		log:       m.log.With(zap.String("session", shortID(id))),
		subs:      make(map[int]chan whiteboard.Frame),
	}
	s.lastAccessed = now
	s.Gate = reveal.NewGate(opts.AnchorID, opts.IntroDurationMs, s.onGateSkip)
	s.Navigator = signal.NewSlideNavigator(s.Bus)
	s.Bus.Subscribe(signal.GateListener(s.Gate))

	m.sessions[id] = s
	s.log.Info("Board created",
		zap.String("anchor", opts.AnchorID),
		zap.Int("presets", len(board.Presets())),
		zap.Bool("mobile", board.IsMobile()))
	return s, nil
}

// evictOneLocked drops the least recently used session that has no
// subscribers and has not been touched within the keep-alive window.
func (m *Manager) evictOneLocked() bool {
	cutoff := time.Now().Add(-SessionKeepAliveWindow)
	var oldest *BoardSession
	for _, s := range m.sessions {
		if s.SubscriberCount() > 0 || s.LastAccessed().After(cutoff) {
			continue
		}
		if oldest == nil || s.LastAccessed().Before(oldest.LastAccessed()) {
			oldest = s
		}
	}
	if oldest == nil {
		return false
	}
	delete(m.sessions, oldest.ID)
	oldest.close()
	m.log.Info("Evicted idle board to free a slot", zap.String("session", shortID(oldest.ID)))
	return true
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*BoardSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Touch updates the last access time of a session.
func (m *Manager) Touch(id string) bool {
	s, err := m.Get(id)
	if err != nil {
		return false
	}
	s.touch()
	return true
}

// Delete stops a session's playback and closes its subscribers.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close()
	s.log.Info("Board deleted")
	return nil
}

// CleanupOldSessions removes sessions not accessed within maxAge. Sessions
// with connected subscribers are kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []*BoardSession
	for id, s := range m.sessions {
		if s.SubscriberCount() > 0 || !s.LastAccessed().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		stale = append(stale, s)
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		s.log.Info("Cleaned up aged board",
			zap.Duration("idle", time.Since(s.LastAccessed()).Round(time.Second)))
	}
	return len(stale)
}

// RunCleanup calls CleanupOldSessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupOldSessions(maxAge)
		}
	}
}

// RefreshPresets hands every live board the presets lookup returns for its
// section, so an edited scene reaches open boards. Boards whose section is
// gone keep what they have. It returns the number of boards that changed.
func (m *Manager) RefreshPresets(lookup func(anchorID string) ([]models.PresetConfig, bool)) int {
	changed := 0
	for _, s := range m.List() {
		presets, ok := lookup(s.AnchorID)
		if !ok || !s.Board.SetPresets(presets) {
			continue
		}
		changed++
		if _, locked := s.Board.LayoutSize(); locked {
			s.StartPlayback()
		}
		s.Publish()
	}
	if changed > 0 {
		m.log.Info("Refreshed board presets", zap.Int("boards", changed))
	}
	return changed
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns the live sessions, most recently used first.
func (m *Manager) List() []*BoardSession {
	m.mu.RLock()
	list := make([]*BoardSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].LastAccessed().After(list[j].LastAccessed())
	})
	return list
}

// StartPlayback reveals the session's section and runs its frame loop.
func (m *Manager) StartPlayback(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.StartPlayback()
	return nil
}

// Subscribe streams rendered frames of a session.
func (m *Manager) Subscribe(id string) (<-chan whiteboard.Frame, func(), error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.Subscribe()
	return ch, cancel, nil
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*BoardSession)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
