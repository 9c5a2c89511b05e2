package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"lotto-mcp/cmd/drawgen/engine"
	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/filter"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/metrics"
	"lotto-mcp/internal/stats"
)

func generateHistory(t *testing.T, scenario string, count int) (*history.Provider, *history.Store) {
	t.Helper()
	cacheDir := t.TempDir()
	records, err := engine.Generate(engine.GeneratorConfig{Scenario: scenario, Count: count, Seed: 42})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := engine.Save(cacheDir, records); err != nil {
		t.Fatalf("save: %v", err)
	}

	store := history.NewStore()
	provider := history.NewProvider(nil, store, history.ProviderOptions{CacheDir: cacheDir}, nil)
	return provider, store
}

func TestDrawgen_Integration(t *testing.T) {
	for _, scenario := range []string{"uniform", "hot", "gappy"} {
		t.Run(scenario, func(t *testing.T) {
			ctx := context.Background()
			provider, store := generateHistory(t, scenario, 400)
			server := NewServer(store, provider, nil, metrics.New(), Options{DefaultTopN: 5})

			// 1. Load the generated history through the tool
			env := envelope(t)(server.handleRebuildSnapshot(ctx))
			info := env.Data.(map[string]any)["snapshot"].(history.Info)
			if info.Count != 400 {
				t.Fatalf("expected 400 draws, got %d", info.Count)
			}
			if scenario == "gappy" && info.Gaps == 0 {
				t.Error("gappy history should contain gaps")
			}
			target := info.LastRound

			// 2. Full report: every scheme counts six numbers per successor
			env = envelope(t)(server.handleAnalyzeFullReport(ctx, target, false, 0))
			rep := env.Data.(*stats.Report)
			if rep.TotalRoundsAnalyzed != info.Count-1 {
				t.Errorf("expected %d rounds analyzed, got %d", info.Count-1, rep.TotalRoundsAnalyzed)
			}
			for scheme, sum := range rep.Schemes {
				if sum.SuccessorCount > sum.MatchCount {
					t.Errorf("%s: successors %d exceed matches %d", scheme, sum.SuccessorCount, sum.MatchCount)
				}
				if sum.Total != sum.SuccessorCount*draw.PickCount {
					t.Errorf("%s: total %d != %d successors * %d", scheme, sum.Total, sum.SuccessorCount, draw.PickCount)
				}
				if len(sum.Top) > 5 {
					t.Errorf("%s: top list ignores default top_n: %d", scheme, len(sum.Top))
				}
			}
			if rep.KMatch.MatchCount == 0 {
				t.Error("400 rounds should contain at least one round sharing a number with the target")
			}

			// 3. The single-scheme tool agrees with the report
			env = envelope(t)(server.handleAnalyzeNextFrequency(ctx, target, "zone", false, 0))
			zone := env.Data.(stats.NextFrequencySummary)
			if zone.MatchCount != rep.MatchCounts["zone"] {
				t.Errorf("zone: tool says %d matches, report says %d", zone.MatchCount, rep.MatchCounts["zone"])
			}

			// 4. A scan over the whole history with the bonus counted
			cond := json.RawMessage(`{"oddCount": {"op": "gte", "value": 3}, "sum": {"op": "between", "value": 100, "max": 180}}`)
			env = envelope(t)(server.handleScanConditions(ctx, 1, target, cond, true, false, 0))
			scan := env.Data.(*filter.ScanResult)
			if scan.MatchCount == 0 {
				t.Fatal("a broad condition should match some rounds")
			}
			total := 0
			for _, c := range scan.NextFrequency {
				total += c
			}
			if total < scan.NextRoundsUsed*draw.PickCount || total > scan.NextRoundsUsed*(draw.PickCount+1) {
				t.Errorf("bonus-inclusive total %d out of bounds for %d successors", total, scan.NextRoundsUsed)
			}
			t.Logf("[%s] target=%d kmatch=%d scan matched=%d", scenario, target, rep.KMatch.MatchCount, scan.MatchCount)
		})
	}
}

func TestDrawgen_QueriesShareOneSnapshot(t *testing.T) {
	ctx := context.Background()
	provider, store := generateHistory(t, "uniform", 200)
	if _, err := provider.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	server := NewServer(store, provider, nil, nil, Options{})

	errs := make(chan error, 20)
	for i := range 20 {
		go func() {
			_, err := server.handleAnalyzeNextFrequency(ctx, 200, string(stats.Schemes()[i%len(stats.Schemes())]), false, 0)
			if err == nil && i%5 == 0 {
				_, err = server.handleRebuildSnapshot(ctx)
			}
			if err != nil {
				err = fmt.Errorf("query %d: %w", i, err)
			}
			errs <- err
		}()
	}
	for range 20 {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
