package filter

import (
	"fmt"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/stats"
)

// DefaultDetailLimit caps the per-round records returned by a scan.
const DefaultDetailLimit = 200

// Engine compiles conditions against a shared bucket cache and scans snapshots.
type Engine struct {
	buckets     *BucketCache
	detailLimit int
}

// NewEngine creates an engine. A non-positive detailLimit selects the default.
func NewEngine(buckets *BucketCache, detailLimit int) *Engine {
	if buckets == nil {
		buckets = NewBucketCache()
	}
	if detailLimit <= 0 {
		detailLimit = DefaultDetailLimit
	}
	return &Engine{buckets: buckets, detailLimit: detailLimit}
}

// Buckets exposes the engine's partition cache.
func (e *Engine) Buckets() *BucketCache { return e.buckets }

// Compile validates a raw condition.
func (e *Engine) Compile(raw RawCondition) (*Condition, error) {
	return Compile(raw, e.buckets)
}

// ScanOptions tunes a scan.
type ScanOptions struct {
	BonusIncluded bool
	IncludeDetail bool
	DetailLimit   int
}

// MatchDetail describes one matching round and its successor.
type MatchDetail struct {
	Round       int   `json:"round"`
	Numbers     []int `json:"numbers"`
	Bonus       int   `json:"bonus"`
	NextRound   int   `json:"next_round,omitempty"`
	NextNumbers []int `json:"next_numbers,omitempty"`
	NextBonus   int   `json:"next_bonus,omitempty"`
}

// ScanResult is the outcome of a predicate scan.
type ScanResult struct {
	StartRound     int                   `json:"start_round"`
	EndRound       int                   `json:"end_round"`
	UnitSize       int                   `json:"unit_size"`
	BonusIncluded  bool                  `json:"bonus_included"`
	RoundsScanned  int                   `json:"rounds_scanned"`
	Matched        []int                 `json:"matched"`
	MatchCount     int                   `json:"match_count"`
	NextRoundsUsed int                   `json:"next_rounds_used"`
	NextFrequency  stats.FrequencyVector `json:"next_frequency"`
	NextRangeDist  map[string]int        `json:"next_range_dist"`
	Details        []MatchDetail         `json:"details,omitempty"`
	Truncated      bool                  `json:"truncated"`
}

// Scan evaluates cond for every round r in [start, end-1] present in snap and
// accumulates the rounds that follow each match. Conditions always test the
// main numbers only; opts.BonusIncluded affects the successor accumulation.
func (e *Engine) Scan(snap *history.Snapshot, start, end int, cond *Condition, opts ScanOptions) (*ScanResult, error) {
	if cond == nil {
		return nil, fmt.Errorf("%w: nil condition", draw.ErrInvalidArgument)
	}
	if start < 1 {
		return nil, fmt.Errorf("%w: startRound must be >= 1, got %d", draw.ErrInvalidArgument, start)
	}
	if end <= start {
		return nil, fmt.Errorf("%w: endRound %d must exceed startRound %d", draw.ErrInvalidArgument, end, start)
	}

	limit := opts.DetailLimit
	if limit <= 0 || limit > e.detailLimit {
		limit = e.detailLimit
	}

	res := &ScanResult{
		StartRound:    start,
		EndRound:      end,
		UnitSize:      cond.Partition.UnitSize,
		BonusIncluded: opts.BonusIncluded,
		Matched:       []int{},
		NextRangeDist: make(map[string]int, len(cond.Partition.Buckets)),
	}
	for _, b := range cond.Partition.Buckets {
		res.NextRangeDist[b.Key] = 0
	}

	for _, cur := range snap.Range(start, end-1) {
		res.RoundsScanned++
		if !cond.Match(cur) {
			continue
		}
		res.Matched = append(res.Matched, cur.Round)

		next, ok := snap.Get(cur.Round + 1)
		if ok {
			nextMask := next.MaskFor(opts.BonusIncluded)
			res.NextFrequency.Add(nextMask)
			for _, b := range cond.Partition.Buckets {
				res.NextRangeDist[b.Key] += nextMask.IntersectCount(b.Mask)
			}
			res.NextRoundsUsed++
		}

		if !opts.IncludeDetail {
			continue
		}
		if len(res.Details) >= limit {
			res.Truncated = true
			continue
		}
		d := MatchDetail{Round: cur.Round, Numbers: cur.Numbers, Bonus: cur.Bonus}
		if ok {
			d.NextRound = next.Round
			d.NextNumbers = next.Numbers
			d.NextBonus = next.Bonus
		}
		res.Details = append(res.Details, d)
	}

	res.MatchCount = len(res.Matched)
	return res, nil
}
