// Package sequence provides the order-ID allocator: a lock-free,
// strictly monotonic counter independent of the book lock.
package sequence

import "sync/atomic"

// Sequencer hands out process-lifetime-unique order IDs starting at 1.
// After recovery it is seeded past the highest id in the durable store,
// so a restart never reissues an id.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose next id is start+1. A fresh system
// passes 0.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued id (0 if none yet).
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}
