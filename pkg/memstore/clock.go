package memstore

import (
	"sync"
	"time"
)

// Clock is a simulated clock with an adjustable offset from wall time.
// The analytics time-range filters and event timestamp defaults read it, so
// tests and the admin control plane can move time without sleeping.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
}

// NewClock creates a clock with no offset.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().Add(c.offset)
}

// NowMillis returns the current simulated time as Unix milliseconds, the
// resolution analytics events are timestamped with.
func (c *Clock) NowMillis() int64 {
	return c.Now().UnixMilli()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

// Reset clears the offset.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
}

// Offset returns the current offset from wall time.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}
