package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdir/internal/platform/metrics"
)

func TestLatencyMiddleware_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Post("/api/managers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/managers", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodPost, "/api/managers", "200"))
	assert.Equal(t, float64(1), count)
}

func TestLatencyMiddleware_CountsDistinctStatuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusInternalServerError, rr.Code)
	}

	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/health", "500"))
	assert.Equal(t, float64(3), count)
}
