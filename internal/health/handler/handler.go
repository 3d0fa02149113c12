// Package handler exposes the liveness endpoint that probes the service's
// downstream dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/requestcontext"
)

// probeTimeout bounds each dependency probe so a hung database cannot stall
// the health endpoint past its caller's patience.
const probeTimeout = 2 * time.Second

// DatabasePinger is the subset of *sql.DB the health check needs.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger reports whether the Redis connection is reachable.
type RedisPinger interface {
	Health(ctx context.Context) error
}

// Handler probes downstream dependencies and reports service health.
type Handler struct {
	db     DatabasePinger
	redis  RedisPinger
	logger *slog.Logger
}

// New constructs a health handler. redis may be nil when Redis is not
// configured; the probe is skipped in that case.
func New(db DatabasePinger, redis RedisPinger, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		redis:  redis,
		logger: logger,
	}
}

// Register mounts the health endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// HandleHealth handles GET /health requests. Probes run in order and the
// first failure short-circuits with its error text in the response.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timestamp := requestcontext.Now(ctx).UTC().Format(time.RFC3339)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := h.db.PingContext(probeCtx); err != nil {
		h.writeUnhealthy(w, ctx, timestamp, "postgres", err)
		return
	}
	if h.redis != nil {
		if err := h.redis.Health(probeCtx); err != nil {
			h.writeUnhealthy(w, ctx, timestamp, "redis", err)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: timestamp,
	})
}

func (h *Handler) writeUnhealthy(w http.ResponseWriter, ctx context.Context, timestamp, probe string, err error) {
	h.logger.ErrorContext(ctx, "health check failed",
		"probe", probe,
		"error", err,
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, healthResponse{
		Status:    "unhealthy",
		Timestamp: timestamp,
		Error:     err.Error(),
	})
}
