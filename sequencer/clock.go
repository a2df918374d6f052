package sequencer

import (
	"sync"
	"time"
)

// Clock is the external monotonic time source, in seconds
type Clock interface {
	Now() float64
}

// WallClock counts seconds since it was created
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock only moves when told to. Used by tests and headless renders.
type ManualClock struct {
	mu sync.Mutex
	t  float64
}

func NewManualClock(t float64) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t += d
	return c.t
}
