// Package cache memoizes query results in Redis. Keys bind the index
// fingerprint to the postfix form of the query, so a rebuilt index never
// serves stale results. Cache failures are logged and treated as misses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

const KeyPrefix = "boolq:"

// Backend is the key-value store behind the cache. *redis.Client satisfies
// it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Key returns the cache key for a postfix query against the index with the
// given fingerprint.
func Key(fingerprint uint32, postfix string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%08x|%s", fingerprint, postfix)))
	return KeyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached IDs for key.
func (c *QueryCache) Get(ctx context.Context, key string) ([]uint32, bool) {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNil(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var ids []uint32
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Warn("cache entry unreadable", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return ids, true
}

// Set stores ids under key.
func (c *QueryCache) Set(ctx context.Context, key string, ids []uint32) {
	if ids == nil {
		ids = []uint32{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key or computes and stores it.
// Concurrent misses on the same key share one computation. The boolean
// reports a cache hit. Errors from compute are returned and not cached.
//
// The shared computation runs detached from any single caller's
// cancellation, so one caller's expired deadline does not fail the others;
// each caller still stops waiting when its own ctx is done.
func (c *QueryCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]uint32, error)) ([]uint32, bool, error) {
	if ids, ok := c.Get(ctx, key); ok {
		return ids, true, nil
	}
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		ids, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		c.Set(flightCtx, key, ids)
		return ids, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.([]uint32), false, nil
	}
}

// Invalidate drops every cached query result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.DeletePrefix(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
