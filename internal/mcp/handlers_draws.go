package mcp

import (
	"context"
	"errors"
	"fmt"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/stats"

	"github.com/rs/zerolog/log"
)

// maxRangeDraws caps get_draw_range so a single response stays readable.
const maxRangeDraws = 500

func (s *Server) handleGetDraw(ctx context.Context, round int) (any, error) {
	q, err := runQuery(ctx, s, "get_draw", nil, func(snap *history.Snapshot) (draw.Draw, error) {
		if round <= 0 {
			return draw.Draw{}, fmt.Errorf("%w: round must be positive, got %d", draw.ErrInvalidArgument, round)
		}
		d, ok := snap.Get(round)
		if !ok {
			return draw.Draw{}, fmt.Errorf("%w: round %d is not in the snapshot (latest is %d)", draw.ErrNotFound, round, snap.Latest())
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return s.WrapResponse(q.Value, diagnosticsOf(q), nil, ""), nil
}

type drawRange struct {
	StartRound int         `json:"start_round"`
	EndRound   int         `json:"end_round"`
	Count      int         `json:"count"`
	Missing    []int       `json:"missing,omitempty"`
	Draws      []draw.Draw `json:"draws"`
}

func (s *Server) handleGetDrawRange(ctx context.Context, start, end int) (any, error) {
	q, err := runQuery(ctx, s, "get_draw_range", nil, func(snap *history.Snapshot) (drawRange, error) {
		if start <= 0 || end < start {
			return drawRange{}, fmt.Errorf("%w: invalid round range [%d,%d]", draw.ErrInvalidArgument, start, end)
		}
		if end-start+1 > maxRangeDraws {
			return drawRange{}, fmt.Errorf("%w: range spans %d rounds, at most %d are returned per call", draw.ErrInvalidArgument, end-start+1, maxRangeDraws)
		}

		draws := snap.Range(start, end)
		res := drawRange{StartRound: start, EndRound: end, Count: len(draws), Draws: draws}
		next := start
		for _, d := range draws {
			for ; next < d.Round; next++ {
				res.Missing = append(res.Missing, next)
			}
			next = d.Round + 1
		}
		for ; next <= end && next <= snap.Latest(); next++ {
			res.Missing = append(res.Missing, next)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	var guidance []string
	if len(q.Value.Missing) > 0 {
		guidance = append(guidance, fmt.Sprintf("%d rounds inside the range are absent from the snapshot. Statistics that need round r+1 skip them.", len(q.Value.Missing)))
	}
	if end > q.Snapshot.LastRound {
		guidance = append(guidance, fmt.Sprintf("The snapshot ends at round %d. Call 'rebuild_snapshot' if newer draws have been published.", q.Snapshot.LastRound))
	}
	return s.WrapResponse(q.Value, diagnosticsOf(q), guidance, ""), nil
}

func (s *Server) handleGetLatestRound(ctx context.Context) (any, error) {
	q, err := runQuery(ctx, s, "get_latest_round", nil, func(snap *history.Snapshot) (draw.Draw, error) {
		d, _ := snap.Get(snap.Latest())
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	res := map[string]any{
		"latest_round": q.Value.Round,
		"draw":         q.Value,
	}
	return s.WrapResponse(res, diagnosticsOf(q), nil, ""), nil
}

type schemeInfo struct {
	Name        stats.Scheme `json:"name"`
	Description string       `json:"description"`
}

func (s *Server) handleListSchemes() (any, error) {
	schemes := stats.Schemes()
	res := make([]schemeInfo, 0, len(schemes))
	for _, sc := range schemes {
		res = append(res, schemeInfo{Name: sc, Description: sc.Description()})
	}
	guidance := []string{
		"Pass one of these names as 'scheme' to 'analyze_next_frequency'.",
		"'analyze_full_report' runs every scheme at once together with the K-match grouping.",
	}
	return s.WrapResponse(res, nil, guidance, ""), nil
}

func (s *Server) handleGetSnapshotInfo() (any, error) {
	info := s.store.Current().Info()
	var guidance []string
	if info.Count == 0 {
		guidance = append(guidance, "The snapshot is empty. Call 'rebuild_snapshot' to load the draw history.")
	}
	if info.Gaps > 0 {
		guidance = append(guidance, fmt.Sprintf("The history has %d missing rounds. Counts that follow a gap are based on fewer successors.", info.Gaps))
	}
	return s.WrapResponse(info, nil, guidance, ""), nil
}

func (s *Server) handleRebuildSnapshot(ctx context.Context) (any, error) {
	if s.rebuilder == nil {
		return nil, errors.New("no draw source is configured for this server")
	}
	before := s.store.Current().Info()

	info, err := s.rebuilder.Rebuild(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Snapshot rebuild from tool call failed")
		return nil, fmt.Errorf("rebuild failed, the previous snapshot stays active: %w", err)
	}

	res := map[string]any{
		"snapshot":      info,
		"previous":      before.Version,
		"rounds_added":  info.LastRound - before.LastRound,
		"draws_changed": info.Count - before.Count,
	}
	guidance := []string{"Cached analysis results from the previous snapshot no longer apply. Re-run any analysis you rely on."}
	return s.WrapResponse(res, nil, guidance, ""), nil
}
