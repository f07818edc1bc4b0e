package driverstore

import "sync/atomic"

// Sequence hands out driver ids.
//
// Every call to Next returns a value strictly greater than any value
// previously returned or passed to Observe.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	last atomic.Int64
}

// NewSequenceAt creates a sequence whose first Next returns start+1.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Current returns the last id handed out or observed.
func (s *Sequence) Current() int64 {
	return s.last.Load()
}

// Observe raises the sequence so later ids exceed id.
// Lower values are ignored.
func (s *Sequence) Observe(id int64) {
	for {
		cur := s.last.Load()
		if id <= cur {
			return
		}
		if s.last.CompareAndSwap(cur, id) {
			return
		}
	}
}
