// Package ratelimit throttles repetitive log lines.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Counter lets one event through per interval and counts the ones it holds
// back. It is safe for concurrent use.
type Counter struct {
	interval   time.Duration
	now        func() time.Time
	lastAllow  atomic.Int64
	suppressed atomic.Uint64
}

// NewCounter allows an event at most once per interval. A zero or negative
// interval allows every event.
func NewCounter(interval time.Duration) *Counter {
	return &Counter{interval: interval, now: time.Now}
}

// Allow reports whether the caller may emit now. When it may, the second
// result is the number of events suppressed since the last allowed one.
func (c *Counter) Allow() (bool, uint64) {
	if c == nil {
		return true, 0
	}
	if c.interval <= 0 {
		return true, c.suppressed.Swap(0)
	}
	now := c.now().UnixNano()
	last := c.lastAllow.Load()
	if last != 0 && now-last < c.interval.Nanoseconds() {
		c.suppressed.Add(1)
		return false, 0
	}
	if !c.lastAllow.CompareAndSwap(last, now) {
		c.suppressed.Add(1)
		return false, 0
	}
	return true, c.suppressed.Swap(0)
}

// Reset re-arms the counter so the next event is allowed immediately and
// returns how many events were suppressed since the last allowed one.
func (c *Counter) Reset() uint64 {
	if c == nil {
		return 0
	}
	c.lastAllow.Store(0)
	return c.suppressed.Swap(0)
}
