// Package httptransport assembles the chi router: middleware chain, CORS
// policy, route groups, and the JSON 404/405 handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	healthhandler "agentdir/internal/health/handler"
	managershandler "agentdir/internal/managers/handler"
	"agentdir/internal/platform/config"
	"agentdir/internal/platform/metrics"
	"agentdir/internal/platform/middleware"
	rlmiddleware "agentdir/internal/ratelimit/middleware"
	rlmodels "agentdir/internal/ratelimit/models"
	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/platform/middleware/metadata"
	"agentdir/pkg/platform/middleware/requesttime"
)

const (
	// requestTimeout bounds every request end to end; the lookup query and
	// dependency probes all run well inside it.
	requestTimeout = 30 * time.Second
	// maxBodyBytes caps request bodies at 1 MiB. Legitimate agent lists are
	// a few kilobytes at most.
	maxBodyBytes = 1 << 20
)

// Deps carries the wired components the router mounts.
type Deps struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	RateLimit *rlmiddleware.Middleware
	Health    *healthhandler.Handler
	Managers  *managershandler.Handler
}

// NewRouter builds the full HTTP surface.
//
// Chain order matters: request time and client metadata are captured before
// anything logs or rate-limits, and rate limiting runs before authentication
// so an abusive client burns its budget without probing the key check.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requesttime.Middleware)
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.LatencyMiddleware(deps.Metrics))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.APIKeyHeader},
	}).Handler)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound,
			httputil.ErrorResponse{Error: "Endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed,
			httputil.ErrorResponse{Error: "Method not allowed"})
	})

	// Operational endpoints: no auth, default rate class.
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.RateLimit(rlmodels.ClassDefault))
		deps.Health.Register(r)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	// Lookup API: tighter rate class, then auth, then body guards.
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimit.RateLimit(rlmodels.ClassLookup))
		r.Use(middleware.RequireAPIKey(deps.Config.Auth.APIKeys, deps.Logger))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.BodyLimit(maxBodyBytes))
		deps.Managers.Register(r)
	})

	return r
}
