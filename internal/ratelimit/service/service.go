package service

import (
	"context"
	"errors"
	"log/slog"

	"agentdir/internal/ratelimit/config"
	"agentdir/internal/ratelimit/metrics"
	"agentdir/internal/ratelimit/models"
	"agentdir/internal/ratelimit/ports"
	dErrors "agentdir/pkg/domain-errors"
	"agentdir/pkg/requestcontext"
)

// Type aliases for interfaces from ports package.
// This allows external packages to use these types without importing ports directly.
type (
	BucketStore    = ports.BucketStore
	AllowlistStore = ports.AllowlistStore
)

type Service struct {
	buckets   BucketStore
	allowlist AllowlistStore
	logger    *slog.Logger
	config    *config.Config
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(
	buckets BucketStore,
	allowlist AllowlistStore,
	opts ...Option,
) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	if allowlist == nil {
		return nil, errors.New("allowlist store is required")
	}

	svc := &Service{
		buckets:   buckets,
		allowlist: allowlist,
		config:    config.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// CheckIP applies the rate limit for the given client IP and endpoint class.
// Allowlisted IPs bypass the check without consuming quota.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx)

	requestsPerWindow, window, ok := s.config.GetLimit(class)
	if !ok {
		// Default-deny: a class without a configured limit is a wiring
		// mistake, not an open door.
		ports.LogAudit(ctx, s.logger, "rate_limit_config_missing",
			"identifier", ip,
			"endpoint_class", class,
		)
		return &models.RateLimitResult{
			Allowed:    false,
			Limit:      0,
			Remaining:  0,
			ResetAt:    now,
			RetryAfter: 60,
		}, nil
	}

	allowlisted, err := s.allowlist.IsAllowlisted(ctx, ip)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check allowlist")
	}
	if allowlisted {
		if s.metrics != nil {
			s.metrics.RecordCheck(class.String(), metrics.OutcomeBypassed)
			s.metrics.RecordAllowlistBypass(string(models.KeyPrefixIP))
		}
		ports.LogAudit(ctx, s.logger, "allowlist_bypass",
			"identifier", ip,
			"endpoint_class", class,
			"bypass_type", string(models.KeyPrefixIP),
		)
		return &models.RateLimitResult{
			Allowed:   true,
			Bypassed:  true,
			Limit:     requestsPerWindow,
			Remaining: requestsPerWindow,
			ResetAt:   now.Add(window),
		}, nil
	}

	key := models.NewRateLimitKey(models.KeyPrefixIP, ip, class)
	result, err := s.buckets.Allow(ctx, key.String(), requestsPerWindow, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if s.metrics != nil {
		outcome := metrics.OutcomeAllowed
		if !result.Allowed {
			outcome = metrics.OutcomeDenied
		}
		s.metrics.RecordCheck(class.String(), outcome)
	}
	if !result.Allowed {
		ports.LogAudit(ctx, s.logger, "ip_rate_limit_exceeded",
			"identifier", ip,
			"endpoint_class", class,
			"limit", requestsPerWindow,
			"window_seconds", int(window.Seconds()),
		)
	}

	return result, nil
}

// Reset clears the rate limit counter for an IP and class. Used by tests and
// operational tooling, not by the request path.
func (s *Service) Reset(ctx context.Context, ip string, class models.EndpointClass) error {
	key := models.NewRateLimitKey(models.KeyPrefixIP, ip, class)
	if err := s.buckets.Reset(ctx, key.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset rate limit")
	}
	return nil
}
