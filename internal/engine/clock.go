package engine

import "sync/atomic"

// Clock is the monotonic logical clock stamping journal entries.
//
// Every state transition gets a strictly increasing seq number. Journals are
// ordered by seq, never by wall time, so a journal reads back in the exact
// order the transitions happened.
//
// Next is atomic, but the engine is single-threaded and is the only caller.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume numbering from an existing journal.
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
