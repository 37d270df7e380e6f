// Package metrics exposes the production counters scraped at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Production struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	produced *prometheus.CounterVec
}

// NewProduction registers the production collectors on reg.
func NewProduction(reg prometheus.Registerer) *Production {
	m := &Production{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnipos",
			Subsystem: "production",
			Name:      "runs_total",
			Help:      "Production runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omnipos",
			Subsystem: "production",
			Name:      "run_duration_seconds",
			Help:      "Wall time of production runs by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnipos",
			Subsystem: "production",
			Name:      "produced_units_total",
			Help:      "Finished-good units produced by product.",
		}, []string{"product_id"}),
	}
	reg.MustRegister(m.runs, m.duration, m.produced)
	return m
}

// ObserveRun records one run. A nil receiver is a no-op.
func (m *Production) ObserveRun(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AddProduced adds produced units for productID. A nil receiver is a no-op.
func (m *Production) AddProduced(productID string, units float64) {
	if m == nil {
		return
	}
	m.produced.WithLabelValues(productID).Add(units)
}
