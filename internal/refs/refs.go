// Package refs tracks which blocks may share a buffer family.
//
// A Set is attached to every block produced by a sharing derivation. Entries
// are weak, so a table dropped without ceremony stops counting once the
// collector runs. Holders that split off deliberately (copy-on-write, block
// replacement) call Release so sharing state is exact without waiting for a
// collection.
package refs

import "weak"

// Set is the sole source of truth for sharing among blocks that alias the
// same buffers. Not safe for concurrent use; the engine is single-threaded
// by contract.
type Set[T any] struct {
	entries []weak.Pointer[T]
}

func NewSet[T any]() *Set[T] {
	return &Set[T]{}
}

// Register adds blk to the set. Called at derivation time, for the parent
// when the set is first created and for every child sharing its buffers.
func (s *Set[T]) Register(blk *T) {
	s.entries = append(s.entries, weak.Make(blk))
}

// HasOtherLive reports whether any live entry besides excluding remains.
// Dead entries are pruned in passing, so a later scan never pays for
// siblings that have already gone away.
func (s *Set[T]) HasOtherLive(excluding *T) bool {
	live := s.entries[:0]
	other := false
	for _, e := range s.entries {
		p := e.Value()
		if p == nil {
			continue
		}
		live = append(live, e)
		if p != excluding {
			other = true
		}
	}
	s.entries = live
	return other
}

// Release removes blk eagerly. Called when a holder detaches after
// copy-on-write or when a manager replaces a block; liveness decay would
// reach the same answer eventually, Release makes it immediate.
func (s *Set[T]) Release(blk *T) {
	live := s.entries[:0]
	for _, e := range s.entries {
		p := e.Value()
		if p == nil || p == blk {
			continue
		}
		live = append(live, e)
	}
	s.entries = live
}

// Live returns the number of live entries. Diagnostics only.
func (s *Set[T]) Live() int {
	n := 0
	for _, e := range s.entries {
		if e.Value() != nil {
			n++
		}
	}
	return n
}
