package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gradus/pkg/platform/middleware/requesttime"
)

// RedisStore shares sliding windows across instances through a sorted set
// per key, scored by request time in milliseconds. Keys expire one window
// after their last request so idle subjects cost nothing.
type RedisStore struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Take records one request for key if it fits under limit within the window.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := requesttime.Now(ctx)
	cutoff := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	// Requests landing on the same millisecond need distinct members.
	member := uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit: take: %w", err)
	}

	oldest := now
	if zs := oldestCmd.Val(); len(zs) > 0 {
		oldest = time.UnixMilli(int64(zs[0].Score))
	}
	resetAt := oldest.Add(window)

	count := int(countCmd.Val())
	if count > limit {
		// The request went in before the count came back; take it out again
		// so it does not occupy a slot. A failed trim self-heals when the
		// member ages out of the window.
		_ = s.client.ZRem(ctx, key, member).Err()
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retrySeconds(resetAt, now),
		}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
