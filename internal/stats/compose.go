package stats

import (
	"cmp"
	"slices"

	"lotto-mcp/internal/draw"
)

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// TopN ranks numbers by count descending, ties broken by ascending number.
// n <= 0 or n > domain size returns the full ranking.
func TopN(f FrequencyVector, n int) []Ranked {
	out := make([]Ranked, 0, draw.Size)
	for i, c := range f {
		out = append(out, Ranked{Number: i + draw.Base, Count: c})
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Number, b.Number)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// FrequencySummary is the output record of one frequency vector.
type FrequencySummary struct {
	Frequency map[int]int `json:"frequency"`
	Top       []Ranked    `json:"top"`
	Total     int         `json:"total"`
}

// Summarize converts a vector into a dense map with its top-N ranking.
func Summarize(f FrequencyVector, topN int) FrequencySummary {
	return FrequencySummary{
		Frequency: f.Dense(),
		Top:       TopN(f, topN),
		Total:     f.Total(),
	}
}

// NextFrequencySummary is the composed output of Aggregate.
type NextFrequencySummary struct {
	FrequencySummary
	Scheme         Scheme `json:"scheme"`
	TargetRound    int    `json:"target_round"`
	TargetKey      string `json:"target_key"`
	BonusIncluded  bool   `json:"bonus_included"`
	MatchCount     int    `json:"match_count"`
	SuccessorCount int    `json:"successor_count"`
}

// ComposeNext builds the output record of a single-scheme aggregation.
func ComposeNext(r NextFrequency, topN int) NextFrequencySummary {
	return NextFrequencySummary{
		FrequencySummary: Summarize(r.Frequency, topN),
		Scheme:           r.Scheme,
		TargetRound:      r.TargetRound,
		TargetKey:        r.TargetKey,
		BonusIncluded:    r.BonusIncluded,
		MatchCount:       r.MatchCount,
		SuccessorCount:   r.SuccessorCount,
	}
}

// KMatchGroupSummary is the composed output of one K-match group.
type KMatchGroupSummary struct {
	FrequencySummary
	MatchCount     int `json:"match_count"`
	SuccessorCount int `json:"successor_count"`
}

// KMatchSummary is the composed output of AggregateKMatch.
type KMatchSummary struct {
	TargetRound   int                           `json:"target_round"`
	BonusIncluded bool                          `json:"bonus_included"`
	Groups        map[string]KMatchGroupSummary `json:"groups"`
	MatchCount    int                           `json:"match_count"`
}

// ComposeKMatch builds the output record of a K-match aggregation.
func ComposeKMatch(r KMatchResult, topN int) KMatchSummary {
	out := KMatchSummary{
		TargetRound:   r.TargetRound,
		BonusIncluded: r.BonusIncluded,
		Groups:        make(map[string]KMatchGroupSummary, len(KMatchLabels)),
	}
	for i, label := range KMatchLabels {
		g := r.Groups[i]
		out.Groups[label] = KMatchGroupSummary{
			FrequencySummary: Summarize(g.Frequency, topN),
			MatchCount:       g.MatchCount,
			SuccessorCount:   g.SuccessorCount,
		}
		out.MatchCount += g.MatchCount
	}
	return out
}
