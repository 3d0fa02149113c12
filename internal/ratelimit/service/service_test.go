package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"agentdir/internal/ratelimit/config"
	"agentdir/internal/ratelimit/metrics"
	"agentdir/internal/ratelimit/models"
	"agentdir/internal/ratelimit/store/allowlist"
	"agentdir/internal/ratelimit/store/bucket"
	"agentdir/pkg/requestcontext"
)

// =============================================================================
// Rate Limit Service Test Suite
// =============================================================================
// Justification for unit tests: bypass, default-deny, and budget isolation
// behavior depends on wiring between config, allowlist, and bucket store that
// HTTP-level tests cannot pin down without flaky timing assertions.

type RateLimitServiceSuite struct {
	suite.Suite
	ctx       context.Context
	buckets   *bucket.InMemoryBucketStore
	allowlist *allowlist.MemoryStore
	service   *Service
}

func TestRateLimitServiceSuite(t *testing.T) {
	suite.Run(t, new(RateLimitServiceSuite))
}

func (s *RateLimitServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.buckets = bucket.New()

	var err error
	s.allowlist, err = allowlist.NewMemory([]string{"10.0.0.99"})
	s.Require().NoError(err)

	cfg, err := config.FromStrings("5 per hour", "2 per hour")
	s.Require().NoError(err)

	s.service, err = New(s.buckets, s.allowlist, WithConfig(cfg))
	s.Require().NoError(err)
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *RateLimitServiceSuite) TestNew() {
	s.Run("nil buckets store returns error", func() {
		_, err := New(nil, s.allowlist)
		s.Error(err)
		s.Contains(err.Error(), "buckets store is required")
	})

	s.Run("nil allowlist store returns error", func() {
		_, err := New(s.buckets, nil)
		s.Error(err)
		s.Contains(err.Error(), "allowlist store is required")
	})

	s.Run("valid stores return configured service", func() {
		svc, err := New(s.buckets, s.allowlist)
		s.NoError(err)
		s.NotNil(svc)
	})
}

// =============================================================================
// CheckIP Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestCheckIP() {
	s.Run("allows requests under the limit", func() {
		result, err := s.service.CheckIP(s.ctx, "203.0.113.1", models.ClassLookup)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.False(result.Bypassed)
		s.Equal(2, result.Limit)
		s.Equal(1, result.Remaining)
		s.True(result.ResetAt.After(time.Now()))
	})

	s.Run("denies once the budget is exhausted", func() {
		ip := "203.0.113.2"
		for i := 0; i < 2; i++ {
			result, err := s.service.CheckIP(s.ctx, ip, models.ClassLookup)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}

		result, err := s.service.CheckIP(s.ctx, ip, models.ClassLookup)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(2, result.Limit)
		s.Equal(0, result.Remaining)
		s.Greater(result.RetryAfter, 0)
	})

	s.Run("classes use separate budgets", func() {
		ip := "203.0.113.3"
		for i := 0; i < 3; i++ {
			_, err := s.service.CheckIP(s.ctx, ip, models.ClassLookup)
			s.Require().NoError(err)
		}

		result, err := s.service.CheckIP(s.ctx, ip, models.ClassDefault)
		s.Require().NoError(err)
		s.True(result.Allowed, "exhausting lookup must not touch the default budget")
		s.Equal(5, result.Limit)
	})

	s.Run("different IPs use separate budgets", func() {
		for i := 0; i < 2; i++ {
			_, err := s.service.CheckIP(s.ctx, "203.0.113.4", models.ClassLookup)
			s.Require().NoError(err)
		}

		result, err := s.service.CheckIP(s.ctx, "203.0.113.5", models.ClassLookup)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

// =============================================================================
// Default-Deny Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestCheckIPUnknownClass() {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	result, err := s.service.CheckIP(ctx, "203.0.113.6", models.EndpointClass("bogus"))
	s.Require().NoError(err)
	s.False(result.Allowed, "unconfigured classes must be denied")
	s.Equal(0, result.Limit)
	s.Equal(60, result.RetryAfter)
	s.Equal(now, result.ResetAt)
}

// =============================================================================
// Allowlist Bypass Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestCheckIPAllowlisted() {
	s.Run("bypasses the limit", func() {
		for i := 0; i < 10; i++ {
			result, err := s.service.CheckIP(s.ctx, "10.0.0.99", models.ClassLookup)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.True(result.Bypassed)
			s.Equal(2, result.Remaining, "bypass must report a full budget")
		}
	})

	s.Run("consumes no quota", func() {
		key := models.NewRateLimitKey(models.KeyPrefixIP, "10.0.0.99", models.ClassLookup)
		count, err := s.buckets.GetCurrentCount(s.ctx, key.String())
		s.Require().NoError(err)
		s.Equal(0, count)
	})
}

// =============================================================================
// Reset Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestReset() {
	ip := "203.0.113.20"
	for i := 0; i < 2; i++ {
		_, err := s.service.CheckIP(s.ctx, ip, models.ClassLookup)
		s.Require().NoError(err)
	}

	result, err := s.service.CheckIP(s.ctx, ip, models.ClassLookup)
	s.Require().NoError(err)
	s.Require().False(result.Allowed)

	s.Require().NoError(s.service.Reset(s.ctx, ip, models.ClassLookup))

	result, err = s.service.CheckIP(s.ctx, ip, models.ClassLookup)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

// =============================================================================
// Metrics Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestCheckIPRecordsMetrics() {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)

	cfg, err := config.FromStrings("5 per hour", "1 per hour")
	s.Require().NoError(err)

	svc, err := New(s.buckets, s.allowlist, WithConfig(cfg), WithMetrics(m))
	s.Require().NoError(err)

	_, err = svc.CheckIP(s.ctx, "203.0.113.30", models.ClassLookup)
	s.Require().NoError(err)
	_, err = svc.CheckIP(s.ctx, "203.0.113.30", models.ClassLookup)
	s.Require().NoError(err)
	_, err = svc.CheckIP(s.ctx, "10.0.0.99", models.ClassLookup)
	s.Require().NoError(err)

	s.Equal(float64(1), promtestutil.ToFloat64(m.ChecksTotal.WithLabelValues("lookup", metrics.OutcomeAllowed)))
	s.Equal(float64(1), promtestutil.ToFloat64(m.ChecksTotal.WithLabelValues("lookup", metrics.OutcomeDenied)))
	s.Equal(float64(1), promtestutil.ToFloat64(m.ChecksTotal.WithLabelValues("lookup", metrics.OutcomeBypassed)))
	s.Equal(float64(1), promtestutil.ToFloat64(m.AllowlistBypassTotal.WithLabelValues("ip")))
}
