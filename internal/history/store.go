package history

import (
	"sync/atomic"

	"lotto-mcp/internal/draw"
)

// Store owns the current snapshot and swaps it atomically on rebuild.
// Readers that need a consistent view across several lookups should call
// Current once and work on the returned handle.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot(nil))
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs next as the active snapshot and returns the previous one.
func (s *Store) Replace(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}

// Rebuild builds a snapshot from draws and installs it in one swap.
func (s *Store) Rebuild(draws []draw.Draw) *Snapshot {
	next := NewSnapshot(draws)
	s.Replace(next)
	return next
}

// GetDraw looks up one round on the active snapshot.
func (s *Store) GetDraw(round int) (draw.Draw, bool) {
	return s.Current().Get(round)
}

// GetRange returns draws in [start, end] on the active snapshot.
func (s *Store) GetRange(start, end int) []draw.Draw {
	return s.Current().Range(start, end)
}

// LatestRound returns the highest round on the active snapshot.
func (s *Store) LatestRound() int {
	return s.Current().Latest()
}
