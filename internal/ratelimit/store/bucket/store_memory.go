// Package bucket provides sliding window rate limit counters.
package bucket

import (
	"context"
	"sync"
	"time"

	"agentdir/internal/ratelimit/models"
)

// InMemoryBucketStore implements BucketStore using an in-memory sliding
// window. Counts are per process; use the Redis store when multiple
// instances must share budgets.
type InMemoryBucketStore struct {
	mu      sync.RWMutex
	buckets map[string]*slidingWindow
}

// slidingWindow tracks request timestamps so limits follow the actual
// request distribution instead of resetting at fixed boundaries.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// New creates a new in-memory bucket store.
func New() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
	}
}

// Allow checks if a request is allowed and increments the counter.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed.
// Similar to Allow but consumes 'cost' slots instead of 1.
func (s *InMemoryBucketStore) AllowN(ctx context.Context, key string, cost int, limit int, window time.Duration) (*models.RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sw := s.getOrCreateBucket(key, window)
	sw.cleanup(now)
	count := len(sw.timestamps)

	if count+cost <= limit {
		for i := 0; i < cost; i++ {
			sw.timestamps = append(sw.timestamps, now)
		}

		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - len(sw.timestamps),
			ResetAt:   sw.timestamps[0].Add(window),
		}, nil
	}

	// Denied: the window frees capacity when its oldest entry expires.
	resetAt := now.Add(window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(window)
	}

	return &models.RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfterSeconds(now, resetAt),
	}, nil
}

// Reset clears the rate limit counter for a key.
func (s *InMemoryBucketStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// GetCurrentCount returns the current request count for a key.
func (s *InMemoryBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.buckets[key]
	if sw == nil {
		return 0, nil
	}

	sw.cleanup(time.Now())
	return len(sw.timestamps), nil
}

// cleanup removes expired timestamps from a sliding window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// getOrCreateBucket returns an existing bucket or creates a new one.
// Must be called while holding s.mu.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, window time.Duration) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{timestamps: []time.Time{}, window: window}
	s.buckets[key] = sw
	return sw
}

// retryAfterSeconds converts a reset time into whole seconds, rounding up so
// clients that honor it land after the window opens.
func retryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 1
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
