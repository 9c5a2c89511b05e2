package stats

import (
	"fmt"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
)

// NextFrequency is the result of a single-scheme next-round aggregation.
type NextFrequency struct {
	Scheme        Scheme          `json:"scheme"`
	TargetRound   int             `json:"target_round"`
	TargetKey     string          `json:"target_key"`
	BonusIncluded bool            `json:"bonus_included"`
	Frequency     FrequencyVector `json:"frequency"`
	// MatchCount counts every earlier round whose key equals the target key,
	// including rounds whose successor is missing from the snapshot.
	MatchCount int `json:"match_count"`
	// SuccessorCount counts the matches whose round r+1 was present and
	// therefore contributed to Frequency.
	SuccessorCount int `json:"successor_count"`
}

// Aggregate scans every round before target, groups rounds whose key under
// scheme equals the target's, and counts the numbers drawn in the round that
// followed each of them.
func Aggregate(snap *history.Snapshot, target int, scheme Scheme, bonusIncluded bool) (NextFrequency, error) {
	classify, err := ClassifierFor(scheme)
	if err != nil {
		return NextFrequency{}, err
	}
	targetDraw, err := targetOf(snap, target)
	if err != nil {
		return NextFrequency{}, err
	}

	res := NextFrequency{
		Scheme:        scheme,
		TargetRound:   target,
		TargetKey:     classify(targetDraw),
		BonusIncluded: bonusIncluded,
	}

	snap.Before(target, func(d draw.Draw) bool {
		if classify(d) != res.TargetKey {
			return true
		}
		res.MatchCount++
		if next, ok := snap.Get(d.Round + 1); ok {
			res.SuccessorCount++
			res.Frequency.Add(next.MaskFor(bonusIncluded))
		}
		return true
	})

	return res, nil
}

func targetOf(snap *history.Snapshot, target int) (draw.Draw, error) {
	if target <= 0 {
		return draw.Draw{}, fmt.Errorf("%w: target round must be positive, got %d", draw.ErrInvalidArgument, target)
	}
	d, ok := snap.Get(target)
	if !ok {
		return draw.Draw{}, fmt.Errorf("%w: round %d", draw.ErrNotFound, target)
	}
	return d, nil
}
