// Package timer runs the one-second game clock. A Ticker fires a callback at a
// fixed interval until stopped; there is no pause or resume.
package timer

import (
	"sync"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
)

// DefaultInterval is the elapsed-time resolution of a game.
const DefaultInterval = time.Second

// Ticker schedules repeated callbacks on a clock.Clock.
type Ticker struct {
	clock    clock.Clock
	interval time.Duration

	mu      sync.Mutex
	pending clock.Timer
	epoch   uint64
}

// New creates a stopped Ticker. A non-positive interval uses DefaultInterval.
func New(c clock.Clock, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{clock: c, interval: interval}
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Start begins ticking, calling onTick once per interval. A running ticker is
// cancelled first, so only the newest callback ever receives ticks.
func (t *Ticker) Start(onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.epoch++
	t.scheduleLocked(t.epoch, onTick)
}

// Stop cancels the ticker. Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.epoch++
}

// Running reports whether a tick is scheduled.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Ticker) stopLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Ticker) scheduleLocked(epoch uint64, onTick func()) {
	t.pending = t.clock.AfterFunc(t.interval, func() {
		t.mu.Lock()
		if t.epoch != epoch {
			// stopped or restarted after this tick was already in flight
			t.mu.Unlock()
			return
		}
		t.scheduleLocked(epoch, onTick)
		t.mu.Unlock()

		onTick()
	})
}
