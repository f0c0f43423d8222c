package journal

import "sync/atomic"

// Clock is a monotonic logical clock for journal ordering.
//
// Every entry of a session is stamped with a strictly increasing seq from
// this clock. Wall-clock time is never used for ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at seq, so its first Next returns
// seq+1.
func NewClockAt(seq int64) *Clock {
	c := &Clock{}
	c.seq.Store(seq)
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
