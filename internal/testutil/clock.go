package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a Clock reports.
var Epoch = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests.
//
// Each call to Now returns the previous instant plus Step, starting at
// Epoch. Safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewClock creates a clock that advances by step on every Now.
// A zero step freezes the clock at Epoch.
func NewClock(step time.Duration) *Clock {
	return &Clock{step: step}
}

// Now returns the next instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Calls returns how many times Now has been called.
func (c *Clock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to Epoch.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
