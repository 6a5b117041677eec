package engine

import "sync/atomic"

// Clock is a monotonic logical clock for trace ordering.
//
// Every executed step is stamped with the next seq. Restoring a snapshot
// rewinds the clock so that a replayed branch numbers its steps exactly as
// the first visit did.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// rewind moves the clock back to a value captured by Current.
func (c *Clock) rewind(seq int64) {
	c.seq.Store(seq)
}
