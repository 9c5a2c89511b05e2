package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotto-mcp/internal/cache"
	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/filter"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/metrics"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Rebuilder replaces the active snapshot.
type Rebuilder interface {
	Rebuild(ctx context.Context) (history.Info, error)
}

// Options tunes the tool layer.
type Options struct {
	Version             string
	EnableMermaidCharts bool
	DefaultTopN         int
	ScanDetailLimit     int
}

// Server holds the state for the MCP server.
type Server struct {
	store     *history.Store
	rebuilder Rebuilder
	engine    *filter.Engine
	results   *cache.ResultCache
	metrics   *metrics.Metrics
	opts      Options
}

// NewServer creates a new MCP server. rebuilder, results and m may be nil.
func NewServer(store *history.Store, rebuilder Rebuilder, results *cache.ResultCache, m *metrics.Metrics, opts Options) *Server {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 10
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		store:     store,
		rebuilder: rebuilder,
		engine:    filter.NewEngine(filter.NewBucketCache(), opts.ScanDetailLimit),
		results:   results,
		metrics:   m,
		opts:      opts,
	}
}

// Start runs the tool server over stdio until the client disconnects or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	server := sdk.NewServer(&sdk.Implementation{Name: "lotto-mcp", Version: s.opts.Version}, nil)
	s.registerTools(server)

	log.Info().Int("draws", s.store.Current().Len()).Msg("MCP Server starting Stdio loop")
	return server.Run(ctx, &sdk.StdioTransport{})
}

// snapshot returns the active snapshot, failing when nothing has been loaded.
func (s *Server) snapshot() (*history.Snapshot, error) {
	snap := s.store.Current()
	if snap.Len() == 0 {
		return nil, fmt.Errorf("%w: the draw history is empty, call 'rebuild_snapshot' first", draw.ErrNotFound)
	}
	return snap, nil
}

func (s *Server) topN(n int) int {
	if n <= 0 {
		return s.opts.DefaultTopN
	}
	return n
}

// queryResult carries a computed value and how it was obtained.
type queryResult[T any] struct {
	Value    T
	Snapshot history.Info
	CacheHit bool
	Elapsed  time.Duration
}

// runQuery evaluates compute against one snapshot handle and records metrics.
// A non-nil params makes the result cacheable under the snapshot version.
func runQuery[T any](ctx context.Context, s *Server, kind string, params any, compute func(*history.Snapshot) (T, error)) (queryResult[T], error) {
	start := time.Now()
	var res queryResult[T]

	snap, err := s.snapshot()
	switch {
	case err != nil:
	case params == nil:
		res.Snapshot = snap.Info()
		res.Value, err = compute(snap)
	default:
		res.Snapshot = snap.Info()
		var key string
		key, err = cache.Key(snap.Version(), kind, params)
		if err == nil {
			res.Value, res.CacheHit, err = cache.Do(ctx, s.results, key, func() (T, error) {
				return compute(snap)
			})
		}
	}

	res.Elapsed = time.Since(start)
	s.metrics.ObserveQuery(kind, statusOf(err), res.Elapsed)
	if err != nil {
		log.Debug().Err(err).Str("kind", kind).Msg("Query failed")
		return res, err
	}
	log.Debug().Str("kind", kind).Bool("cache_hit", res.CacheHit).Dur("elapsed", res.Elapsed).Msg("Query served")
	return res, nil
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, draw.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, draw.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func diagnosticsOf[T any](q queryResult[T]) map[string]any {
	return map[string]any{
		"snapshot_version": q.Snapshot.Version,
		"snapshot_draws":   q.Snapshot.Count,
		"latest_round":     q.Snapshot.LastRound,
		"cache_hit":        q.CacheHit,
		"elapsed_ms":       q.Elapsed.Milliseconds(),
	}
}

// toolResult renders a handler outcome as MCP content.
func toolResult(data any, err error) *sdk.CallToolResult {
	if err != nil {
		return &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: "Error: " + err.Error()}},
		}
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: formatResult(data)}},
	}
}

func formatResult(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: failed to encode result: %v", err)
	}
	return string(out)
}
