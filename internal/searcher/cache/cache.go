// Package cache memoises passage responses in Redis. Concurrent misses for
// the same key are collapsed into one ranking with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/redis"
)

const keyPrefix = "passages:"

// Backend is the key-value store behind the cache; *pkgredis.Client
// satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps backend. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, req executor.Request) (*executor.Response, bool) {
	key := BuildKey(req)
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var resp executor.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return &resp, true
}

// Set stores a complete response. Partial responses are never cached.
func (c *QueryCache) Set(ctx context.Context, req executor.Request, resp *executor.Response) {
	if resp.Partial {
		return
	}
	key := BuildKey(req)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for req or computes, stores and
// returns it. The boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	computeFn func() (*executor.Response, error),
) (*executor.Response, bool, error) {
	if resp, ok := c.Get(ctx, req); ok {
		return resp, true, nil
	}
	val, err, _ := c.group.Do(BuildKey(req), func() (any, error) {
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.Response), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
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

// BuildKey hashes the whitespace-normalised question with the field and
// row count. Case is kept because upper-case operators change the query.
func BuildKey(req executor.Request) string {
	normalized := strings.Join(strings.Fields(req.Query), " ")
	raw := fmt.Sprintf("%s|field=%s|rows=%d", normalized, req.Field, req.Rows)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
