package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
)

func newFakeTicker() (*clock.Fake, *Ticker) {
	c := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return c, New(c, time.Second)
}

func TestTicker_TicksEverySecond(t *testing.T) {
	c, tk := newFakeTicker()
	ticks := 0
	tk.Start(func() { ticks++ })

	c.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, ticks)

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, ticks)

	c.Advance(4 * time.Second)
	assert.Equal(t, 5, ticks)
	assert.True(t, tk.Running())
}

func TestTicker_Stop(t *testing.T) {
	c, tk := newFakeTicker()
	ticks := 0
	tk.Start(func() { ticks++ })
	c.Advance(2 * time.Second)

	tk.Stop()
	c.Advance(10 * time.Second)

	assert.Equal(t, 2, ticks)
	assert.False(t, tk.Running())
	assert.Equal(t, 0, c.Pending())
}

func TestTicker_StopFromCallback(t *testing.T) {
	c, tk := newFakeTicker()
	ticks := 0
	tk.Start(func() {
		ticks++
		if ticks == 3 {
			tk.Stop()
		}
	})
	c.Advance(10 * time.Second)
	assert.Equal(t, 3, ticks)
	assert.False(t, tk.Running())
}

func TestTicker_RestartReplacesCallback(t *testing.T) {
	c, tk := newFakeTicker()
	first, second := 0, 0
	tk.Start(func() { first++ })
	c.Advance(1500 * time.Millisecond)

	tk.Start(func() { second++ })
	c.Advance(1500 * time.Millisecond)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second, "restart begins a fresh interval")
	assert.Equal(t, 1, c.Pending())
}

func TestNew_DefaultInterval(t *testing.T) {
	tk := New(clock.Real(), 0)
	assert.Equal(t, DefaultInterval, tk.Interval())
	tk.Stop()
}
