package session

import (
	"context"
	"sync"
	"time"

	"github.com/inkboard/backend/internal/placement"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/signal"
	"github.com/inkboard/backend/internal/whiteboard"
	"go.uber.org/zap"
)

// BoardSession is one connected whiteboard.
type BoardSession struct {
	ID        string
	AnchorID  string
	Board     *whiteboard.Board
	Viewport  *placement.ViewportLock
	Rows      *reveal.Sequence
	Gate      *reveal.Gate
	Bus       *signal.Bus
	Navigator *signal.SlideNavigator
	CreatedAt time.Time

	manager *Manager
	log     *zap.Logger

	mu           sync.Mutex
	lastAccessed time.Time
	cancel       context.CancelFunc
	playing      bool
	closed       bool
	nextSub      int
	subs         map[int]chan whiteboard.Frame
}

// LastAccessed returns the last time the session was used.
func (s *BoardSession) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

func (s *BoardSession) touch() {
	s.mu.Lock()
	s.lastAccessed = time.Now()
	s.mu.Unlock()
}

// Playing reports whether the frame loop is running.
func (s *BoardSession) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// boardStepper advances the section gate, its rows and the board with
// one time.
type boardStepper struct {
	gate  *reveal.Gate
	rows  *reveal.Sequence
	board *whiteboard.Board
}

func (b boardStepper) Step(nowMs float64) bool {
	b.gate.Tick(nowMs)
	b.rows.Tick(nowMs)
	running := b.board.Step(nowMs)
	return running || !b.rows.Settled()
}

// StartPlayback reveals the section and starts the frame loop unless it
// is already running. The loop stops by itself once every preset is done.
func (s *BoardSession) StartPlayback() {
	clock := s.manager.opts.Clock
	now := clock.NowMs()
	if !s.Rows.Revealed() {
		s.Rows.Reveal(now)
	}
	s.Gate.Reveal(now)

	s.mu.Lock()
	if s.closed || s.playing {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.playing = true
	s.mu.Unlock()

	loop := playback.NewLoop(boardStepper{gate: s.Gate, rows: s.Rows, board: s.Board}, clock, s.manager.opts.FrameInterval, func(bool) {
		s.Publish()
	})

	go func() {
		defer cancel()
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			s.log.Warn("Playback loop stopped", zap.Error(err))
		}
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()
		s.log.Debug("Playback finished")
	}()
}

// Skip finishes the section entrance through the skip bus, as a forward
// navigation would. It reports whether anything was skipped.
func (s *BoardSession) Skip() bool {
	s.touch()
	if s.Bus.RequestSkip(s.AnchorID) {
		return true
	}
	return s.Board.Skip() > 0
}

// onGateSkip runs when the gate activates skip, by request or timeout.
func (s *BoardSession) onGateSkip() {
	s.Rows.Skip()
	if n := s.Board.Skip(); n > 0 {
		s.log.Debug("Skipped pending reveals", zap.Int("presets", n))
	}
}

// Subscribe returns a channel receiving rendered frames. Slow readers only
// ever see the latest frame.
func (s *BoardSession) Subscribe() (<-chan whiteboard.Frame, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan whiteboard.Frame, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.lastAccessed = time.Now()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// SubscriberCount returns the number of frame subscribers.
func (s *BoardSession) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Publish renders the board and hands the frame to every subscriber.
func (s *BoardSession) Publish() whiteboard.Frame {
	frame := s.Board.Render()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- frame:
		default:
			// drop the stale frame in favor of the new one
			select {
			case <-ch:
			default:
			}
			ch <- frame
		}
	}
	return frame
}

func (s *BoardSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}
