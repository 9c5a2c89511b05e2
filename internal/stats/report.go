package stats

import (
	"context"
	"fmt"
	"sync"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"

	"golang.org/x/sync/errgroup"
)

// Report runs every scheme and the K-match aggregation for one target round.
type Report struct {
	TargetRound         int                             `json:"target_round"`
	TargetNumbers       []int                           `json:"target_numbers"`
	BonusIncluded       bool                            `json:"bonus_included"`
	TotalRoundsAnalyzed int                             `json:"total_rounds_analyzed"`
	Schemes             map[Scheme]NextFrequencySummary `json:"schemes"`
	KMatch              KMatchSummary                   `json:"kmatch"`
	MatchCounts         map[string]int                  `json:"match_counts"`
}

// BuildReport evaluates all schemes concurrently against one snapshot handle.
func BuildReport(ctx context.Context, snap *history.Snapshot, target int, bonusIncluded bool, topN int) (*Report, error) {
	targetDraw, err := targetOf(snap, target)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		TargetRound:   target,
		TargetNumbers: targetDraw.Numbers,
		BonusIncluded: bonusIncluded,
		Schemes:       make(map[Scheme]NextFrequencySummary, len(allSchemes)),
		MatchCounts:   make(map[string]int, len(allSchemes)+1),
	}
	snap.Before(target, func(draw.Draw) bool {
		rep.TotalRoundsAnalyzed++
		return true
	})

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, scheme := range allSchemes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := Aggregate(snap, target, scheme, bonusIncluded)
			if err != nil {
				return fmt.Errorf("scheme %s: %w", scheme, err)
			}
			summary := ComposeNext(res, topN)

			mu.Lock()
			rep.Schemes[scheme] = summary
			rep.MatchCounts[string(scheme)] = res.MatchCount
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		res, err := AggregateKMatch(snap, target, bonusIncluded)
		if err != nil {
			return fmt.Errorf("kmatch: %w", err)
		}
		summary := ComposeKMatch(res, topN)

		mu.Lock()
		rep.KMatch = summary
		rep.MatchCounts["kmatch"] = summary.MatchCount
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}

// RangeFrequencyResult counts plain appearances over a round range.
type RangeFrequencyResult struct {
	FrequencySummary
	StartRound    int  `json:"start_round"`
	EndRound      int  `json:"end_round"`
	BonusIncluded bool `json:"bonus_included"`
	Draws         int  `json:"draws"`
}

// RangeFrequency counts how often each number was drawn in [start, end].
func RangeFrequency(snap *history.Snapshot, start, end int, bonusIncluded bool, topN int) (RangeFrequencyResult, error) {
	if start <= 0 || end < start {
		return RangeFrequencyResult{}, fmt.Errorf("%w: invalid round range [%d,%d]", draw.ErrInvalidArgument, start, end)
	}

	var f FrequencyVector
	draws := snap.Range(start, end)
	for _, d := range draws {
		f.Add(d.MaskFor(bonusIncluded))
	}

	return RangeFrequencyResult{
		FrequencySummary: Summarize(f, topN),
		StartRound:       start,
		EndRound:         end,
		BonusIncluded:    bonusIncluded,
		Draws:            len(draws),
	}, nil
}
