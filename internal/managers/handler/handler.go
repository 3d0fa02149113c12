package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agentdir/internal/managers/models"
	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/requestcontext"
)

// Service defines the interface for manager lookups.
type Service interface {
	Lookup(ctx context.Context, agents []string) (map[string]*string, error)
}

// Handler wires the manager lookup endpoint to the lookup service.
type Handler struct {
	service    Service
	logger     *slog.Logger
	validation models.ValidationConfig
}

// New constructs a managers handler with its dependencies.
func New(service Service, logger *slog.Logger, validation models.ValidationConfig) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		validation: validation,
	}
}

// Register mounts the lookup endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/managers", h.HandleLookup)
}

// HandleLookup handles POST /api/managers requests.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[LookupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	agents := req.ParsedAgents()
	if err := models.ValidateAgents(agents, h.validation); err != nil {
		h.logger.WarnContext(ctx, "agent list rejected",
			"request_id", requestID,
			"agent_count", len(agents),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	managers, err := h.service.Lookup(ctx, agents)
	if err != nil {
		h.logger.ErrorContext(ctx, "manager lookup failed",
			"request_id", requestID,
			"agent_count", len(agents),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "managers resolved",
		"request_id", requestID,
		"agent_count", len(agents),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromManagers(managers))
}
