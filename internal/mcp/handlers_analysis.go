package mcp

import (
	"context"
	"fmt"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/stats"
	"lotto-mcp/internal/visuals"
)

const disclaimer = "These are historical co-occurrence counts. Past draws carry no information about future draws; do not present the counts as predictions or odds."

func (s *Server) handleAnalyzeNextFrequency(ctx context.Context, round int, schemeName string, bonusIncluded bool, topN int) (any, error) {
	topN = s.topN(topN)
	params := struct {
		Round  int    `json:"round"`
		Scheme string `json:"scheme"`
		Bonus  bool   `json:"bonus"`
		TopN   int    `json:"top_n"`
	}{round, schemeName, bonusIncluded, topN}

	q, err := runQuery(ctx, s, "next_frequency", params, func(snap *history.Snapshot) (stats.NextFrequencySummary, error) {
		scheme, err := stats.ParseScheme(schemeName)
		if err != nil {
			return stats.NextFrequencySummary{}, err
		}
		res, err := stats.Aggregate(snap, round, scheme, bonusIncluded)
		if err != nil {
			return stats.NextFrequencySummary{}, err
		}
		return stats.ComposeNext(res, topN), nil
	})
	if err != nil {
		return nil, err
	}
	r := q.Value

	guidance := []string{disclaimer}
	switch {
	case r.MatchCount == 0:
		guidance = append(guidance, fmt.Sprintf("No round before %d has the key %q under scheme %q, so every count is zero. Try a coarser scheme.", round, r.TargetKey, r.Scheme))
	case r.SuccessorCount < r.MatchCount:
		guidance = append(guidance, fmt.Sprintf("%d of %d matching rounds have no following round in the snapshot and add nothing to the frequency. Divide by successor_count, not match_count, for per-round rates.", r.MatchCount-r.SuccessorCount, r.MatchCount))
	}
	if r.SuccessorCount > 0 && r.SuccessorCount < 10 {
		guidance = append(guidance, fmt.Sprintf("Only %d successor rounds were counted. Differences of one or two appearances are noise at this sample size.", r.SuccessorCount))
	}

	chart := visuals.GenerateFrequencyChart(fmt.Sprintf("Numbers After Rounds Matching %s (%s)", r.TargetKey, r.Scheme), vectorOf(r.Frequency))
	return s.WrapResponse(r, diagnosticsOf(q), guidance, chart), nil
}

func (s *Server) handleAnalyzeKMatch(ctx context.Context, round int, bonusIncluded bool, topN int) (any, error) {
	topN = s.topN(topN)
	params := struct {
		Round int  `json:"round"`
		Bonus bool `json:"bonus"`
		TopN  int  `json:"top_n"`
	}{round, bonusIncluded, topN}

	q, err := runQuery(ctx, s, "kmatch", params, func(snap *history.Snapshot) (stats.KMatchSummary, error) {
		res, err := stats.AggregateKMatch(snap, round, bonusIncluded)
		if err != nil {
			return stats.KMatchSummary{}, err
		}
		return stats.ComposeKMatch(res, topN), nil
	})
	if err != nil {
		return nil, err
	}

	guidance := []string{
		disclaimer,
		"Groups are keyed by how many main numbers an earlier round shares with the target. Rounds sharing none are not grouped.",
	}
	if g := q.Value.Groups["4+"]; g.MatchCount == 0 {
		guidance = append(guidance, "No earlier round shares four or more numbers with the target; the '4+' group is empty.")
	}
	return s.WrapResponse(q.Value, diagnosticsOf(q), guidance, visuals.GenerateKMatchChart(q.Value)), nil
}

func (s *Server) handleAnalyzeFullReport(ctx context.Context, round int, bonusIncluded bool, topN int) (any, error) {
	topN = s.topN(topN)
	params := struct {
		Round int  `json:"round"`
		Bonus bool `json:"bonus"`
		TopN  int  `json:"top_n"`
	}{round, bonusIncluded, topN}

	q, err := runQuery(ctx, s, "full_report", params, func(snap *history.Snapshot) (*stats.Report, error) {
		return stats.BuildReport(ctx, snap, round, bonusIncluded, topN)
	})
	if err != nil {
		return nil, err
	}

	guidance := []string{
		disclaimer,
		"Schemes differ in how finely they group rounds. Fine schemes (exact, range5) match few rounds; prefer coarse ones when match_counts are small.",
	}
	for _, scheme := range stats.Schemes() {
		if q.Value.MatchCounts[string(scheme)] == 0 {
			guidance = append(guidance, fmt.Sprintf("Scheme %q matched no earlier round.", scheme))
		}
	}
	return s.WrapResponse(q.Value, diagnosticsOf(q), guidance, visuals.GenerateKMatchChart(q.Value.KMatch)), nil
}

func (s *Server) handleAnalyzeRangeFrequency(ctx context.Context, start, end int, bonusIncluded bool, topN int) (any, error) {
	topN = s.topN(topN)
	params := struct {
		Start int  `json:"start"`
		End   int  `json:"end"`
		Bonus bool `json:"bonus"`
		TopN  int  `json:"top_n"`
	}{start, end, bonusIncluded, topN}

	q, err := runQuery(ctx, s, "range_frequency", params, func(snap *history.Snapshot) (stats.RangeFrequencyResult, error) {
		return stats.RangeFrequency(snap, start, end, bonusIncluded, topN)
	})
	if err != nil {
		return nil, err
	}

	guidance := []string{disclaimer}
	if q.Value.Draws == 0 {
		guidance = append(guidance, fmt.Sprintf("The snapshot holds no draws in [%d,%d].", start, end))
	}
	chart := visuals.GenerateFrequencyChart(fmt.Sprintf("Appearances in Rounds %d-%d", start, end), vectorOf(q.Value.Frequency))
	return s.WrapResponse(q.Value, diagnosticsOf(q), guidance, chart), nil
}

// vectorOf rebuilds a frequency vector from its dense form.
func vectorOf(dense map[int]int) stats.FrequencyVector {
	var f stats.FrequencyVector
	for n, c := range dense {
		if draw.InDomain(n) {
			f[n-draw.Base] = c
		}
	}
	return f
}
