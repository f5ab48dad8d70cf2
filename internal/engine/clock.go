package engine

import "sync/atomic"

// Clock hands out journal sequence numbers: 1, 2, 3, ... with no gaps.
//
// Brewing time never comes from here; it is the event's At. The sequence
// only orders the journal, so replaying a journal reproduces it exactly.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose next number is last+1. Pass the seq of the
// newest journal entry to continue an existing journal, or 0 for a new one.
func NewClock(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// Next claims the next sequence number.
func (c *Clock) Next() int64 { return c.last.Add(1) }

// Last is the most recently claimed number, or the starting point if none
// has been claimed.
func (c *Clock) Last() int64 { return c.last.Load() }
