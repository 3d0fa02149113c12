package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"agentdir/internal/ratelimit/metrics"
	"agentdir/internal/ratelimit/models"
	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/requestcontext"
)

// RateLimiter checks whether a client IP may proceed for an endpoint class.
type RateLimiter interface {
	CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  RateLimiter
	fallback RateLimiter
	breaker  *CircuitBreaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets the in-memory limiter used while the primary store is
// unavailable.
func WithFallback(fallback RateLimiter) Option {
	return func(m *Middleware) {
		m.fallback = fallback
	}
}

func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = met
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		breaker: newCircuitBreaker(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit enforces the limit for the given endpoint class, keyed by client
// IP. Isolated store errors fail open; sustained errors trip the circuit
// breaker and route checks through the in-memory fallback.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.limiter.CheckIP(ctx, ip, class)
			if err != nil {
				open := m.breaker.RecordFailure()
				if m.metrics != nil {
					m.metrics.RecordStoreFailure()
				}
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"ip", ip,
					"endpoint_class", class,
				)
				if open && m.fallback != nil {
					m.serveDegraded(w, r, next, ip, class)
					return
				}
				// Fail open: a broken limiter must not take the whole
				// service down with it.
				next.ServeHTTP(w, r)
				return
			}
			m.breaker.RecordSuccess()

			// Add headers regardless of outcome
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// serveDegraded enforces the limit from the in-memory fallback and marks the
// response so callers can tell budgets are per-instance right now.
func (m *Middleware) serveDegraded(w http.ResponseWriter, r *http.Request, next http.Handler, ip string, class models.EndpointClass) {
	ctx := r.Context()
	w.Header().Set("X-RateLimit-Status", "degraded")

	result, err := m.fallback.CheckIP(ctx, ip, class)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed",
			"error", err,
			"ip", ip,
			"endpoint_class", class,
		)
		next.ServeHTTP(w, r)
		return
	}

	addRateLimitHeaders(w, result)

	if !result.Allowed {
		writeRateLimitExceeded(w, result)
		return
	}

	next.ServeHTTP(w, r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, models.NewRateLimitExceededResponse())
}
