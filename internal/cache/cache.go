// Package cache provides a Redis-backed query result cache. Concurrent
// identical queries are collapsed via singleflight, and all Redis traffic
// runs behind a circuit breaker so a dead Redis degrades the service to
// direct engine calls rather than per-request timeouts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/minerva-search/minerva/internal/query"
	"github.com/minerva-search/minerva/pkg/config"
	pkgredis "github.com/minerva-search/minerva/pkg/redis"
	"github.com/minerva-search/minerva/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// QueryCache caches executed query results in Redis with a TTL.
type QueryCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache on top of an established Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("redis-cache", 5, 15*time.Second),
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for (q, limit), if any.
func (c *QueryCache) Get(ctx context.Context, q string, limit int) (*query.Result, bool) {
	key := c.buildKey(q, limit)
	var data string
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.client.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			// A miss is not a dependency failure.
			data = ""
			return nil
		}
		return getErr
	})
	if err != nil {
		if err != resilience.ErrCircuitOpen {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if data == "" {
		c.misses.Add(1)
		return nil, false
	}
	var result query.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", q, "key", key)
	return &result, true
}

// Set stores a result under (q, limit) with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, q string, limit int, result *query.Result) {
	key := c.buildKey(q, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	if err != nil && err != resilience.ErrCircuitOpen {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes and stores it. The
// second return reports whether the result came from cache. Concurrent
// callers with the same key share a single computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q string,
	limit int,
	computeFn func() *query.Result,
) (*query.Result, bool) {
	if result, ok := c.Get(ctx, q, limit); ok {
		return result, true
	}
	key := c.buildKey(q, limit)
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		result := computeFn()
		c.Set(ctx, q, limit, result)
		return result, nil
	})
	return v.(*query.Result), false
}

// Invalidate removes every cached search result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("flushing query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns lifetime hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(q string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", q, limit)))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
