package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"agentdir/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "ratelimit:ip:10.0.0.1:lookup", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for i := 0; i < testLimit; i++ {
			result, err = s.store.Allow(s.ctx, "ratelimit:ip:10.0.0.2:lookup", testLimit, testWindow)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied", func() {
		for i := 0; i < testLimit; i++ {
			_, err := s.store.Allow(s.ctx, "ratelimit:ip:10.0.0.3:lookup", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "ratelimit:ip:10.0.0.3:lookup", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(0, result.Remaining)
	})

	s.Run("denial reports when capacity returns", func() {
		key := "ratelimit:ip:10.0.0.4:lookup"
		for i := 0; i < testLimit; i++ {
			_, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		before := time.Now()
		result, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Positive(result.RetryAfter)
		s.LessOrEqual(result.RetryAfter, int(testWindow.Seconds())+1)
		s.True(result.ResetAt.After(before), "reset must be in the future")
	})

	s.Run("after window expires requests allowed", func() {
		key := "ratelimit:ip:10.0.0.5:lookup"
		_, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)

		s.store.mu.Lock()
		if sw, exists := s.store.buckets[key]; exists {
			sw.timestamps = []time.Time{}
		}
		s.store.mu.Unlock()

		result, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	s.Run("cost of 1 behaves like Allow", func() {
		result, err := s.store.AllowN(s.ctx, "ratelimit:ip:10.1.0.1:default", 1, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("cost of 5 consumes 5 tokens", func() {
		result, err := s.store.AllowN(s.ctx, "ratelimit:ip:10.1.0.2:default", 5, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(5, result.Remaining)
	})

	s.Run("cost greater than remaining denied", func() {
		firstResult, err := s.store.AllowN(s.ctx, "ratelimit:ip:10.1.0.3:default", 7, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(firstResult.Allowed)

		result, err := s.store.AllowN(s.ctx, "ratelimit:ip:10.1.0.3:default", 4, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	key := "ratelimit:ip:10.2.0.1:lookup"
	_, err := s.store.AllowN(s.ctx, key, 5, testLimit, testWindow)
	s.Require().NoError(err)

	err = s.store.Reset(s.ctx, key)
	s.Require().NoError(err)

	result, err := s.store.AllowN(s.ctx, key, testLimit, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit, result.Limit)
	s.Equal(0, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestGetCurrentCount() {
	key := "ratelimit:ip:10.3.0.1:lookup"

	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(0, count)

	_, err = s.store.AllowN(s.ctx, key, 3, testLimit, testWindow)
	s.Require().NoError(err)

	count, err = s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := 100 // Different from testLimit for concurrency testing
	key := "ratelimit:ip:10.4.0.1:default"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, key, limit, testWindow)
			s.Require().NoError(err)
			if result.Allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	s.Equal(limit, allowedCount)
}
