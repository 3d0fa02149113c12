// Package metrics registers rate limiter Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check outcomes recorded per endpoint class.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeBypassed = "bypassed"
)

type Metrics struct {
	ChecksTotal          *prometheus.CounterVec
	AllowlistBypassTotal *prometheus.CounterVec
	StoreFailuresTotal   prometheus.Counter
}

// New creates and registers all rate limiter metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdir_ratelimit_checks_total",
			Help: "Total number of rate limit checks by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		AllowlistBypassTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdir_ratelimit_allowlist_bypass_total",
			Help: "Total number of rate limit bypasses granted to allowlisted identifiers",
		}, []string{"type"}),
		StoreFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentdir_ratelimit_store_failures_total",
			Help: "Total number of rate limit store failures (checks failed open)",
		}),
	}
}

// RecordCheck counts one rate limit decision.
func (m *Metrics) RecordCheck(class, outcome string) {
	m.ChecksTotal.WithLabelValues(class, outcome).Inc()
}

// RecordAllowlistBypass counts one allowlist bypass.
func (m *Metrics) RecordAllowlistBypass(bypassType string) {
	m.AllowlistBypassTotal.WithLabelValues(bypassType).Inc()
}

// RecordStoreFailure counts one store failure that caused a fail-open.
func (m *Metrics) RecordStoreFailure() {
	m.StoreFailuresTotal.Inc()
}
