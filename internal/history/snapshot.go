package history

import (
	"sort"
	"time"

	"lotto-mcp/internal/draw"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Snapshot is an immutable, round-indexed view of the draw history.
// Once built it is never mutated, so any number of readers may share it.
type Snapshot struct {
	version string
	builtAt time.Time

	byRound map[int]draw.Draw
	rounds  []int // ascending
}

// Info summarizes a snapshot for diagnostics.
type Info struct {
	Version    string    `json:"version"`
	BuiltAt    time.Time `json:"built_at"`
	Count      int       `json:"count"`
	FirstRound int       `json:"first_round"`
	LastRound  int       `json:"last_round"`
	Gaps       int       `json:"gaps"`
}

// NewSnapshot builds a snapshot from draws. When a round appears more than once
// the last occurrence wins.
func NewSnapshot(draws []draw.Draw) *Snapshot {
	s := &Snapshot{
		version: uuid.NewString(),
		builtAt: time.Now(),
		byRound: make(map[int]draw.Draw, len(draws)),
	}

	for _, d := range draws {
		if _, dup := s.byRound[d.Round]; dup {
			log.Warn().Int("round", d.Round).Msg("Duplicate round in snapshot input, keeping last")
		} else {
			s.rounds = append(s.rounds, d.Round)
		}
		s.byRound[d.Round] = d
	}
	sort.Ints(s.rounds)
	return s
}

// FromRecords validates raw records and builds a snapshot. Invalid records are
// skipped and counted.
func FromRecords(records []draw.Record) (*Snapshot, int) {
	draws := make([]draw.Draw, 0, len(records))
	skipped := 0
	for _, r := range records {
		d, err := draw.FromRecord(r)
		if err != nil {
			log.Warn().Err(err).Int("round", r.Round).Msg("Skipping invalid draw record")
			skipped++
			continue
		}
		draws = append(draws, d)
	}
	return NewSnapshot(draws), skipped
}

// Version identifies this build of the history.
func (s *Snapshot) Version() string { return s.version }

// Len returns the number of draws.
func (s *Snapshot) Len() int { return len(s.rounds) }

// Get returns the draw for a round. A missing round is not an error.
func (s *Snapshot) Get(round int) (draw.Draw, bool) {
	d, ok := s.byRound[round]
	return d, ok
}

// Latest returns the highest round, or 0 when empty.
func (s *Snapshot) Latest() int {
	if len(s.rounds) == 0 {
		return 0
	}
	return s.rounds[len(s.rounds)-1]
}

// First returns the lowest round, or 0 when empty.
func (s *Snapshot) First() int {
	if len(s.rounds) == 0 {
		return 0
	}
	return s.rounds[0]
}

// Range returns the draws with start <= round <= end in ascending order.
func (s *Snapshot) Range(start, end int) []draw.Draw {
	if end < start {
		return nil
	}
	lo := sort.SearchInts(s.rounds, start)
	var out []draw.Draw
	for _, r := range s.rounds[lo:] {
		if r > end {
			break
		}
		out = append(out, s.byRound[r])
	}
	return out
}

// Before calls fn for every draw with round < limit, ascending, until fn returns false.
func (s *Snapshot) Before(limit int, fn func(draw.Draw) bool) {
	for _, r := range s.rounds {
		if r >= limit {
			return
		}
		if !fn(s.byRound[r]) {
			return
		}
	}
}

// Records returns every draw in its raw form, ascending.
func (s *Snapshot) Records() []draw.Record {
	out := make([]draw.Record, 0, len(s.rounds))
	for _, r := range s.rounds {
		out = append(out, s.byRound[r].Record())
	}
	return out
}

// Info returns summary metadata.
func (s *Snapshot) Info() Info {
	info := Info{
		Version:    s.version,
		BuiltAt:    s.builtAt,
		Count:      len(s.rounds),
		FirstRound: s.First(),
		LastRound:  s.Latest(),
	}
	if info.Count > 0 {
		info.Gaps = info.LastRound - info.FirstRound + 1 - info.Count
	}
	return info
}
