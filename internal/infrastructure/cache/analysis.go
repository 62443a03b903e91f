package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bibliolab/internal/domain/analysis"
)

// kv is the subset of redis.Cmdable used by the caches.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AnalysisCache stores the complex analysis result as JSON under analysis.CacheKey.
type AnalysisCache struct {
	rdb kv
	ttl time.Duration
}

var _ analysis.Cache = (*AnalysisCache)(nil)

// NewAnalysisCache creates a cache whose entries expire after ttl.
func NewAnalysisCache(rdb redis.Cmdable, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached result or (nil, nil) on a miss.
func (c *AnalysisCache) Get(ctx context.Context) (*analysis.Result, error) {
	raw, err := c.rdb.Get(ctx, analysis.CacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	var res analysis.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &res, nil
}

func (c *AnalysisCache) Set(ctx context.Context, r *analysis.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := c.rdb.Set(ctx, analysis.CacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set analysis: %w", err)
	}
	return nil
}

func (c *AnalysisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, analysis.CacheKey).Err(); err != nil {
		return fmt.Errorf("drop analysis: %w", err)
	}
	return nil
}
