// Package cache stores composed analysis results in Redis, keyed by snapshot
// version so a rebuild implicitly invalidates every entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotto-mcp/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "lotto:result:"

// ResultCache is a read-through cache. A nil *ResultCache never hits and
// stores nothing.
type ResultCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New wraps client. A nil client yields a nil cache.
func New(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *ResultCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultCache{client: client, ttl: ttl, metrics: m}
}

// Key derives a cache key from the snapshot version, the query kind and its
// parameters. Parameters must marshal deterministically.
func Key(version, kind string, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal cache params: %w", err)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + version + ":" + kind + ":" + hex.EncodeToString(sum[:12]), nil
}

// Get decodes the cached value into dst. Errors are logged and reported as a miss.
func (c *ResultCache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Result cache read failed")
			c.metrics.ObserveCache("error")
			return false
		}
		c.metrics.ObserveCache("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Result cache entry corrupt")
		c.metrics.ObserveCache("error")
		return false
	}
	c.metrics.ObserveCache("hit")
	return true
}

// Set stores value under key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Result cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Result cache write failed")
		c.metrics.ObserveCache("error")
	}
}

// Close releases the client.
func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Do returns the cached result for key or computes and stores it. hit reports
// whether the value came from the cache.
func Do[T any](ctx context.Context, c *ResultCache, key string, compute func() (T, error)) (result T, hit bool, err error) {
	if c.Get(ctx, key, &result) {
		return result, true, nil
	}
	result, err = compute()
	if err != nil {
		return result, false, err
	}
	c.Set(ctx, key, result)
	return result, false, nil
}
