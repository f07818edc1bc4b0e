package otp

import (
	"context"
	"sync"
	"time"
)

// Countdown is a seconds counter that only moves down.
//
// Thread-safety: Countdown is safe for concurrent use via internal mutex.
type Countdown struct {
	mu        sync.Mutex
	remaining int
}

// Reset sets the counter to secs.
func (c *Countdown) Reset(secs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = max(secs, 0)
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Tick decrements the counter by one second, stopping at zero, and returns
// the new value.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

// Run ticks once per interval until the counter reaches zero or ctx is
// done.
func (c *Countdown) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if c.Remaining() == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
