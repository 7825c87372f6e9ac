package service

import (
	"sync"
	"time"
)

// timestampPrecision is the finest resolution every store backend keeps.
const timestampPrecision = time.Millisecond

// clock hands out strictly increasing UTC timestamps truncated to
// timestampPrecision, so an update always moves UpdatedAt forward.
type clock struct {
	mu     sync.Mutex
	source func() time.Time
	last   time.Time
}

func newClock(source func() time.Time) *clock {
	if source == nil {
		source = time.Now
	}
	return &clock{source: source}
}

func (c *clock) Now() time.Time {
	t := c.source().UTC().Truncate(timestampPrecision)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !t.After(c.last) {
		t = c.last.Add(timestampPrecision)
	}
	c.last = t
	return t
}
