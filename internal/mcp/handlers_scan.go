package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/filter"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/visuals"
)

func (s *Server) handleScanConditions(ctx context.Context, start, end int, condition json.RawMessage, bonusIncluded, includeDetail bool, detailLimit int) (any, error) {
	params := struct {
		Start     int    `json:"start"`
		End       int    `json:"end"`
		Condition string `json:"condition"`
		Bonus     bool   `json:"bonus"`
		Detail    bool   `json:"detail"`
		Limit     int    `json:"limit"`
	}{start, end, string(compactJSON(condition)), bonusIncluded, includeDetail, detailLimit}

	q, err := runQuery(ctx, s, "scan", params, func(snap *history.Snapshot) (*filter.ScanResult, error) {
		if len(condition) == 0 {
			return nil, fmt.Errorf("%w: condition is required", draw.ErrInvalidArgument)
		}
		raw, err := filter.ParseCondition(condition)
		if err != nil {
			return nil, err
		}
		cond, err := s.engine.Compile(raw)
		if err != nil {
			return nil, err
		}
		return s.engine.Scan(snap, start, end, cond, filter.ScanOptions{
			BonusIncluded: bonusIncluded,
			IncludeDetail: includeDetail,
			DetailLimit:   detailLimit,
		})
	})
	if err != nil {
		return nil, err
	}
	r := q.Value
	if !q.CacheHit {
		s.metrics.ObserveScan(r.MatchCount)
	}

	guidance := []string{disclaimer}
	switch {
	case r.MatchCount == 0:
		guidance = append(guidance, "No round in the range satisfies every clause. Loosen a clause or widen the range.")
	case r.NextRoundsUsed < r.MatchCount:
		guidance = append(guidance, fmt.Sprintf("%d matched rounds have no following round in the snapshot; next_frequency counts %d successors.", r.MatchCount-r.NextRoundsUsed, r.NextRoundsUsed))
	}
	if r.Truncated {
		guidance = append(guidance, fmt.Sprintf("Details were cut at %d rounds. 'matched' still lists every matching round.", len(r.Details)))
	}

	var chart string
	if partition, err := s.engine.Buckets().Get(r.UnitSize); err == nil {
		title := fmt.Sprintf("Rounds After Matches, by %d-wide Range", r.UnitSize)
		chart = visuals.GenerateBucketChart(title, "Numbers", partition.Keys(), r.NextRangeDist)
	}
	return s.WrapResponse(r, diagnosticsOf(q), guidance, chart), nil
}

// compactJSON normalizes whitespace so equal conditions share a cache key.
func compactJSON(data json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return data
	}
	return buf.Bytes()
}
