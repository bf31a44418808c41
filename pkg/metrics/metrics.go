// Package metrics exposes Prometheus collectors for expression evaluation.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of gospel_evaluations_total.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	evaluations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    prometheus.Histogram
	cache       *prometheus.CounterVec
}

// New registers the collectors with registerer. A nil registerer gets a
// private registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &Metrics{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gospel_evaluations_total",
				Help: "Number of top-level expression evaluations.",
			},
			[]string{"outcome"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gospel_evaluation_errors_total",
				Help: "Number of failed evaluations by error kind.",
			},
			[]string{"kind"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gospel_evaluation_duration_seconds",
				Help:    "Duration of top-level expression evaluations.",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gospel_cache_requests_total",
				Help: "Number of compiled-expression cache lookups.",
			},
			[]string{"result"},
		),
	}
}

// ObserveEvaluation records one evaluation. kind is the error code of a
// failed evaluation, or "" on success.
func (m *Metrics) ObserveEvaluation(elapsed time.Duration, kind string, failed bool) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	if !failed {
		m.evaluations.WithLabelValues(OutcomeOK).Inc()
		return
	}
	m.evaluations.WithLabelValues(OutcomeError).Inc()
	if kind == "" {
		kind = "unknown"
	}
	m.errors.WithLabelValues(kind).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
	} else {
		m.cache.WithLabelValues("miss").Inc()
	}
}
