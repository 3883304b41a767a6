package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gradus/internal/catalog/metrics"
	id "gradus/pkg/domain"
)

const redisCourseKeyPrefix = "catalog:course:"

// RedisCache persists registry answers in Redis with TTL-based eviction.
// Shared across instances, so one instance's registry fetch warms the
// cache for all of them.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisCache constructs a Redis-backed registry answer cache.
// Usage: pass a configured Redis client; metrics may be nil.
func NewRedisCache(client *redis.Client, ttl time.Duration, metrics *metrics.Metrics) *RedisCache {
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get loads a cached registry answer by course code.
//
// Side effects: performs a Redis GET and records cache hit/miss metrics.
//
// Errors: returns ErrNotFound on cache miss; wraps Redis or JSON decode
// errors.
func (c *RedisCache) Get(ctx context.Context, code id.CourseCode) (*Entry, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, courseKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.recordMiss(start)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode course cache: %w", err)
	}
	c.recordHit(start)
	return &entry, nil
}

// Set writes a registry answer to Redis with TTL eviction.
//
// Side effects: performs a Redis SET; overwrites any existing entry.
func (c *RedisCache) Set(ctx context.Context, code id.CourseCode, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode course cache: %w", err)
	}
	if err := c.client.Set(ctx, courseKey(code), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set course cache: %w", err)
	}
	return nil
}

// Invalidate removes the entry for a course code, if present.
func (c *RedisCache) Invalidate(ctx context.Context, code id.CourseCode) error {
	if err := c.client.Del(ctx, courseKey(code)).Err(); err != nil {
		return fmt.Errorf("invalidate course cache: %w", err)
	}
	return nil
}

// recordHit emits cache hit metrics.
func (c *RedisCache) recordHit(start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCacheHit()
	c.metrics.ObserveCacheLookupDuration(time.Since(start))
}

// recordMiss emits cache miss metrics.
func (c *RedisCache) recordMiss(start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCacheMiss()
	c.metrics.ObserveCacheLookupDuration(time.Since(start))
}

func courseKey(code id.CourseCode) string {
	return redisCourseKeyPrefix + code.String()
}
