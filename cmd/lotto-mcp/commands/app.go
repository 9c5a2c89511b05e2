package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"lotto-mcp/internal/cache"
	"lotto-mcp/internal/config"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/metrics"
	"lotto-mcp/internal/source/dhlottery"
	"lotto-mcp/internal/source/postgres"

	"github.com/rs/zerolog/log"
)

// app holds the long-lived components shared by every command.
type app struct {
	store    *history.Store
	provider *history.Provider
	metrics  *metrics.Metrics
	results  *cache.ResultCache

	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	a := &app{
		store:   history.NewStore(),
		metrics: metrics.New(),
	}

	source, incremental, err := a.openSource(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provider = history.NewProvider(source, a.store, history.ProviderOptions{
		CacheDir:    cfg.CacheDir,
		Incremental: incremental,
	}, a.metrics)

	if cfg.RedisURL != "" {
		client, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			// Queries still work without the result cache.
			log.Warn().Err(err).Msg("Result cache unavailable, continuing without it")
		} else {
			a.results = cache.New(client, cfg.ResultCacheTTL, a.metrics)
			a.closers = append(a.closers, a.results)
		}
	}
	return a, nil
}

// openSource builds the configured draw source. The bool reports whether the
// provider should fetch only rounds newer than its cache.
func (a *app) openSource(ctx context.Context, cfg *config.AppConfig) (history.Source, bool, error) {
	switch cfg.DrawSource {
	case config.SourceCache:
		log.Info().Str("dir", cfg.CacheDir).Msg("Serving the local history cache only")
		return nil, false, nil
	case config.SourcePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, false, err
		}
		a.closers = append(a.closers, db)
		return postgres.New(db), false, nil
	case config.SourceDHLottery:
		return newDHLottery(cfg), true, nil
	default:
		return nil, false, fmt.Errorf("unknown draw source %q", cfg.DrawSource)
	}
}

func newDHLottery(cfg *config.AppConfig) *dhlottery.Client {
	return dhlottery.New(dhlottery.Config{
		BaseURL:      cfg.DHLotteryURL,
		RequestDelay: cfg.DHLotteryRequestDelay,
	})
}

// Close releases every opened connection.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
