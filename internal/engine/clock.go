package engine

import "sync/atomic"

// Clock is a monotonic logical clock that stamps every applied Update with a
// revision. Revisions order updates as the loop applied them; they say
// nothing about the game's cross-team order, which only the reconciler
// decides.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next revision and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued revision without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
