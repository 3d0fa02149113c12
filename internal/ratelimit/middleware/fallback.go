package middleware

import (
	"log/slog"

	"agentdir/internal/ratelimit/config"
	"agentdir/internal/ratelimit/service"
	"agentdir/internal/ratelimit/store/bucket"
)

// NewFallbackLimiter creates a rate limiter over in-memory buckets, used while
// the primary store is unavailable. Budgets are per instance and reset on
// restart, which is acceptable for degraded mode.
// Returns nil if cfg or allowlistStore is nil, logging an error if a logger is provided.
func NewFallbackLimiter(cfg *config.Config, allowlistStore service.AllowlistStore, logger *slog.Logger) RateLimiter {
	if cfg == nil || allowlistStore == nil {
		if logger != nil {
			logger.Error("fallback limiter requires config and allowlist store")
		}
		return nil
	}
	limiter, err := service.New(
		bucket.New(),
		allowlistStore,
		service.WithLogger(logger),
		service.WithConfig(cfg),
	)
	if err != nil {
		if logger != nil {
			logger.Error("failed to initialize fallback rate limiter", "error", err)
		}
		return nil
	}
	return limiter
}
