// Package ports defines shared interfaces for the ratelimit module.
// Interfaces live here when consumed by multiple packages to avoid duplication.
package ports

import (
	"context"
	"time"

	"log/slog"

	"agentdir/internal/ratelimit/models"
	"agentdir/pkg/requestcontext"
)

// BucketStore manages sliding window rate limit counters.
type BucketStore interface {
	// Allow checks if a single request is allowed and consumes one token if so.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

	// AllowN checks if 'cost' requests are allowed and consumes that many tokens if so.
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error)

	// Reset clears the rate limit counter for a key.
	Reset(ctx context.Context, key string) error

	// GetCurrentCount returns the current request count in the window.
	GetCurrentCount(ctx context.Context, key string) (int, error)
}

// AllowlistStore manages rate limit bypass entries.
type AllowlistStore interface {
	// IsAllowlisted checks if an identifier should bypass rate limiting.
	IsAllowlisted(ctx context.Context, identifier string) (bool, error)

	// Add creates a new allowlist entry.
	Add(ctx context.Context, entry *models.AllowlistEntry) error

	// List returns all allowlist entries.
	List(ctx context.Context) ([]*models.AllowlistEntry, error)
}

// LogAudit is a shared helper for logging security-relevant rate limit events.
// Events are tagged log_type=audit so they can be filtered downstream.
func LogAudit(ctx context.Context, logger *slog.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}

	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")

	logger.InfoContext(ctx, event, args...)
}
