package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics provides observability for manager lookups.
type Metrics struct {
	LookupsTotal   *prometheus.CounterVec
	LookupAgents   prometheus.Histogram
	LookupDuration prometheus.Histogram
}

// New creates a Metrics instance registered on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the lookup metrics on reg. Tests pass their own registry
// so repeated construction never panics on duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentdir_manager_lookups_total",
			Help: "Total manager lookups by outcome",
		}, []string{"outcome"}),

		LookupAgents: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentdir_manager_lookup_agents",
			Help:    "Number of agents per lookup request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 300},
		}),

		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentdir_manager_lookup_duration_seconds",
			Help:    "Duration of manager lookups including the directory query",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveLookup records one lookup with its outcome, request size, and duration.
func (m *Metrics) ObserveLookup(outcome string, agents int, d time.Duration) {
	if m != nil {
		m.LookupsTotal.WithLabelValues(outcome).Inc()
		m.LookupAgents.Observe(float64(agents))
		m.LookupDuration.Observe(d.Seconds())
	}
}
