package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"agentdir/internal/ratelimit/models"
)

// RedisBucketStore implements BucketStore on a Redis sorted set per key, so
// budgets are shared across service instances.
//
// Each request adds a uniquely identified member scored by its timestamp;
// members older than the window are trimmed on every check. Over-limit adds
// are rolled back so denied requests consume no quota.
type RedisBucketStore struct {
	client redis.Cmdable
}

// NewRedis creates a Redis-backed bucket store.
func NewRedis(client redis.Cmdable) *RedisBucketStore {
	return &RedisBucketStore{client: client}
}

// Allow checks if a request is allowed and increments the counter.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	members := make([]redis.Z, cost)
	memberIDs := make([]interface{}, cost)
	for i := range members {
		id := uuid.NewString()
		members[i] = redis.Z{Score: float64(now.UnixMilli()), Member: id}
		memberIDs[i] = id
	}

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, members...)
	countCmd := pipe.ZCard(ctx, key)
	// The extra minute covers clock skew between instances.
	pipe.Expire(ctx, key, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}

	count := int(countCmd.Val())
	resetAt := s.resetAt(ctx, key, now, window)

	if count > limit {
		// Roll back the optimistic add; denied requests consume nothing.
		if err := s.client.ZRem(ctx, key, memberIDs...).Err(); err != nil {
			return nil, fmt.Errorf("redis rate limit rollback: %w", err)
		}
		return &models.RateLimitResult{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfterSeconds(now, resetAt),
		}, nil
	}

	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}

// resetAt derives when the oldest entry leaves the window. Falls back to a
// full window from now if the set is empty or unreadable.
func (s *RedisBucketStore) resetAt(ctx context.Context, key string, now time.Time, window time.Duration) time.Time {
	oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return now.Add(window)
	}
	return time.UnixMilli(int64(oldest[0].Score)).Add(window)
}

// Reset clears the rate limit counter for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis rate limit reset: %w", err)
	}
	return nil
}

// GetCurrentCount returns the current request count for a key.
// Expired members are trimmed by the next Allow; the count here may include
// entries about to expire.
func (s *RedisBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis rate limit count: %w", err)
	}
	return int(count), nil
}
