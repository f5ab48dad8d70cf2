package testutil

import (
	"sync"
	"time"
)

// ManualClock is a wall clock that only moves when told to.
//
// Scenarios express event times as offsets; ManualClock turns them into
// absolute times that are identical on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

// Epoch is the default start of a ManualClock: 2024-01-01T00:00:00Z.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewManualClock creates a clock reading start. A zero start means Epoch.
func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = Epoch
	}
	start = start.UTC()
	return &ManualClock{start: start, now: start}
}

// Now returns the current reading.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
// Negative durations are allowed; scenarios use them to model late events.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// At returns start+offset without moving the clock.
func (c *ManualClock) At(offset time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(offset)
}

// Set moves the clock to start+offset and returns the new reading.
func (c *ManualClock) Set(offset time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start.Add(offset)
	return c.now
}

// Reset returns the clock to its start.
func (c *ManualClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
