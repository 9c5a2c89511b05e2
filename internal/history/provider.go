package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Source supplies draw records. Fetch returns records with round > after;
// after == 0 asks for the full history.
type Source interface {
	Fetch(ctx context.Context, after int) ([]draw.Record, error)
}

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	// CacheDir enables the JSONL cache when non-empty.
	CacheDir string
	// Incremental makes the provider fetch only rounds newer than the cache.
	// Authoritative sources (a database) leave it off and are re-read in full.
	Incremental bool
}

// Provider orchestrates snapshot rebuilds from a source and the local cache.
type Provider struct {
	source  Source
	store   *Store
	opts    ProviderOptions
	metrics *metrics.Metrics

	group singleflight.Group
}

// NewProvider wires a provider. source may be nil for cache-only operation.
func NewProvider(source Source, store *Store, opts ProviderOptions, m *metrics.Metrics) *Provider {
	return &Provider{
		source:  source,
		store:   store,
		opts:    opts,
		metrics: m,
	}
}

// Store returns the store the provider rebuilds.
func (p *Provider) Store() *Store { return p.store }

// Rebuild fetches the history and swaps in a new snapshot. Concurrent callers
// share one in-flight rebuild.
func (p *Provider) Rebuild(ctx context.Context) (Info, error) {
	v, err, shared := p.group.Do("rebuild", func() (any, error) {
		return p.rebuild(ctx)
	})
	if shared {
		log.Debug().Msg("Rebuild: joined in-flight rebuild")
	}
	if err != nil {
		return Info{}, err
	}
	return v.(Info), nil
}

func (p *Provider) rebuild(ctx context.Context) (Info, error) {
	start := time.Now()
	info, err := p.doRebuild(ctx)
	p.metrics.ObserveRebuild(err, time.Since(start), info.Count, info.LastRound)
	return info, err
}

func (p *Provider) doRebuild(ctx context.Context) (Info, error) {
	// 1. Start from the cache when one is configured
	var records []draw.Record
	var cacheErr error
	if p.opts.CacheDir != "" {
		records, cacheErr = LoadCache(p.opts.CacheDir)
		if cacheErr != nil {
			if p.source == nil {
				return Info{}, fmt.Errorf("rebuild failed: %w", cacheErr)
			}
			log.Warn().Err(cacheErr).Msg("Rebuild: failed to read cache, continuing without it")
		}
	}

	// 2. Pull from the source
	if p.source != nil {
		after := 0
		if p.opts.Incremental {
			after = maxRound(records)
		}

		fetched, err := p.source.Fetch(ctx, after)
		switch {
		case err != nil:
			// Newer rounds fetched before the failure are still valid on top of
			// the cache. A full source is all-or-nothing.
			if p.opts.Incremental && len(fetched) > 0 {
				log.Warn().Err(err).Int("fetched", len(fetched)).Msg("Rebuild: source fetch stopped early, keeping the rounds fetched so far")
				records = append(records, fetched...)
			}
			if len(records) == 0 {
				return Info{}, fmt.Errorf("rebuild failed: %w", errors.Join(err, cacheErr))
			}
			log.Warn().Err(err).Int("records", len(records)).Msg("Rebuild: source fetch failed, using cached history")
		case p.opts.Incremental:
			log.Info().Int("after", after).Int("fetched", len(fetched)).Msg("Rebuild: fetched draws from source")
			records = append(records, fetched...)
		default:
			log.Info().Int("fetched", len(fetched)).Msg("Rebuild: replaced history from source")
			records = fetched
		}
	}

	// 3. Build and swap. An empty result never replaces a populated history.
	snap, skipped := FromRecords(records)
	if snap.Len() == 0 {
		if current := p.store.Current(); current.Len() > 0 {
			return Info{}, fmt.Errorf("rebuild produced no draws, keeping %d draws up to round %d", current.Len(), current.Info().LastRound)
		}
	}
	p.store.Replace(snap)

	// 4. Persist
	if p.opts.CacheDir != "" && snap.Len() > 0 {
		if err := SaveCache(p.opts.CacheDir, snap); err != nil {
			log.Warn().Err(err).Msg("Rebuild: failed to save cache")
		}
	}

	info := snap.Info()
	log.Info().
		Str("version", info.Version).
		Int("draws", info.Count).
		Int("latest", info.LastRound).
		Int("skipped", skipped).
		Msg("Snapshot rebuilt")
	return info, nil
}

func maxRound(records []draw.Record) int {
	m := 0
	for _, r := range records {
		if r.Round > m {
			m = r.Round
		}
	}
	return m
}
