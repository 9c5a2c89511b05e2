package stats

import (
	"encoding/json"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
)

// KMatch bucket labels, by intersection size with the target draw.
var KMatchLabels = [4]string{"1", "2", "3", "4+"}

// KMatchGroup accumulates the successors of rounds sharing k numbers with the target.
type KMatchGroup struct {
	Frequency      FrequencyVector `json:"frequency"`
	MatchCount     int             `json:"match_count"`
	SuccessorCount int             `json:"successor_count"`
}

// KMatchResult holds one group per label of KMatchLabels.
type KMatchResult struct {
	TargetRound   int            `json:"target_round"`
	BonusIncluded bool           `json:"bonus_included"`
	Groups        [4]KMatchGroup `json:"-"`
}

// Group returns the group for a label, or nil for an unknown label.
func (r *KMatchResult) Group(label string) *KMatchGroup {
	for i, l := range KMatchLabels {
		if l == label {
			return &r.Groups[i]
		}
	}
	return nil
}

// ByLabel returns the groups keyed by label.
func (r *KMatchResult) ByLabel() map[string]*KMatchGroup {
	out := make(map[string]*KMatchGroup, len(KMatchLabels))
	for i, l := range KMatchLabels {
		out[l] = &r.Groups[i]
	}
	return out
}

// MarshalJSON renders the groups as an object keyed by label.
func (r KMatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TargetRound   int                     `json:"target_round"`
		BonusIncluded bool                    `json:"bonus_included"`
		Groups        map[string]*KMatchGroup `json:"groups"`
	}{r.TargetRound, r.BonusIncluded, r.ByLabel()})
}

// kmatchIndex maps an intersection size to a group index; -1 means no group.
func kmatchIndex(k int) int {
	switch {
	case k <= 0:
		return -1
	case k >= 4:
		return 3
	default:
		return k - 1
	}
}

// AggregateKMatch classifies every round before target by how many main
// numbers it shares with the target and accumulates each round's successor
// into the matching group. Rounds sharing nothing are skipped.
func AggregateKMatch(snap *history.Snapshot, target int, bonusIncluded bool) (KMatchResult, error) {
	targetDraw, err := targetOf(snap, target)
	if err != nil {
		return KMatchResult{}, err
	}

	res := KMatchResult{TargetRound: target, BonusIncluded: bonusIncluded}
	ref := targetDraw.Mask()

	snap.Before(target, func(d draw.Draw) bool {
		idx := kmatchIndex(ref.IntersectCount(d.Mask()))
		if idx < 0 {
			return true
		}
		g := &res.Groups[idx]
		g.MatchCount++
		if next, ok := snap.Get(d.Round + 1); ok {
			g.SuccessorCount++
			g.Frequency.Add(next.MaskFor(bonusIncluded))
		}
		return true
	})

	return res, nil
}
