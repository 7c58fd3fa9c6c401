package playback

import (
	"sync"
	"time"
)

// Clock supplies frame timestamps and frame ticks.
type Clock interface {
	// NowMs is a monotonic timestamp in milliseconds.
	NowMs() float64
	// Ticker delivers a tick every d until stop is called.
	Ticker(d time.Duration) (ticks <-chan time.Time, stop func())
}

// RealClock measures time from its creation.
type RealClock struct {
	origin time.Time
}

// NewRealClock creates a clock anchored at now.
func NewRealClock() *RealClock {
	return &RealClock{origin: time.Now()}
}

func (c *RealClock) NowMs() float64 {
	return float64(time.Since(c.origin)) / float64(time.Millisecond)
}

func (c *RealClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// FakeClock is a manually advanced clock for tests and offline rendering.
type FakeClock struct {
	mu      sync.Mutex
	now     float64
	tickers map[int]chan time.Time
	nextID  int
}

// NewFakeClock creates a fake clock reading startMs.
func NewFakeClock(startMs float64) *FakeClock {
	return &FakeClock{now: startMs, tickers: make(map[int]chan time.Time)}
}

func (c *FakeClock) NowMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Ticker(time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan time.Time, 1)
	c.tickers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.tickers, id)
	}
}

// Set moves the clock to ms without ticking.
func (c *FakeClock) Set(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}

// Advance moves the clock forward and delivers one tick to every ticker.
// A ticker that has not consumed its previous tick drops this one.
func (c *FakeClock) Advance(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now += ms
	for _, ch := range c.tickers {
		select {
		case ch <- time.Time{}:
		default:
		}
	}
}
