package test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthhandler "agentdir/internal/health/handler"
	managershandler "agentdir/internal/managers/handler"
	managersmodels "agentdir/internal/managers/models"
	managersservice "agentdir/internal/managers/service"
	managersstore "agentdir/internal/managers/store"
	"agentdir/internal/platform/config"
	"agentdir/internal/platform/metrics"
	rlconfig "agentdir/internal/ratelimit/config"
	rlmiddleware "agentdir/internal/ratelimit/middleware"
	rlservice "agentdir/internal/ratelimit/service"
	"agentdir/internal/ratelimit/store/allowlist"
	"agentdir/internal/ratelimit/store/bucket"
	httptransport "agentdir/internal/transport/http"
	"agentdir/pkg/testutil"
)

type nopPinger struct{}

func (nopPinger) PingContext(ctx context.Context) error { return nil }

// newSmokeRouter assembles the service the way cmd/server does, with
// in-memory stores standing in for Postgres and Redis.
func newSmokeRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assignments := managersstore.NewMemory()
	lead := "ops-lead@example.com"
	assignments.Add("dispatch_7", &lead)
	lookupService, err := managersservice.New(assignments)
	require.NoError(t, err)

	limits, err := rlconfig.FromStrings("100 per hour", "50 per hour")
	require.NoError(t, err)
	allowlistStore, err := allowlist.NewMemory(nil)
	require.NoError(t, err)
	limiter, err := rlservice.New(bucket.New(), allowlistStore,
		rlservice.WithLogger(logger),
		rlservice.WithConfig(limits),
	)
	require.NoError(t, err)

	return httptransport.NewRouter(httptransport.Deps{
		Config: config.Config{
			Auth: config.Auth{APIKeys: []string{"smoke-key"}},
			CORS: config.CORS{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Logger:    logger,
		Metrics:   metrics.NewWith(prometheus.NewRegistry()),
		RateLimit: rlmiddleware.New(limiter, logger),
		Health:    healthhandler.New(nopPinger{}, nil, logger),
		Managers:  managershandler.New(lookupService, logger, managersmodels.ValidationConfig{MaxAgents: 300}),
	})
}

func TestServiceSmoke(t *testing.T) {
	testutil.Given(t, "a fully wired router", func(t *testing.T) {
		router := newSmokeRouter(t)

		testutil.When(t, "posting an authenticated lookup", func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/managers",
				`{"agents": ["dispatch_7"]}`)
			req.Header.Set("X-API-Key", "smoke-key")
			rec := testutil.DoRequest(router, req)

			testutil.Then(t, "the directory answers", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
				assert.JSONEq(t, `{"managers": {"dispatch_7": "ops-lead@example.com"}}`, rec.Body.String())
			})
		})

		testutil.When(t, "probing health", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

			testutil.Then(t, "the service reports healthy", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
				testutil.AssertJSONContains(t, rec, "status", "healthy")
			})
		})
	})
}
