// Package prometheus exposes the learning engine's operational metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the engine's instrument handles.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal       *prometheus.CounterVec
	DiffsPerEvent     prometheus.Histogram
	RuleConfidence    prometheus.Histogram
	ProfileVersion    *prometheus.GaugeVec
	LockWaitSeconds   prometheus.Histogram
	LearnDuration     *prometheus.HistogramVec
}

// New builds the metric set on its own registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "learning_events_total",
			Help:      "Learning events by source and terminal status.",
		}, []string{"source", "status"}),
		DiffsPerEvent: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diffs_per_event",
			Help:      "Field-level differences found per learning event.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		RuleConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_confidence",
			Help:      "Confidence of scored transformations.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ProfileVersion: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profile_version",
			Help:      "Current version per profile.",
		}, []string{"profile"}),
		LockWaitSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profile_lock_wait_seconds",
			Help:      "Time spent waiting for the per-profile write lock.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		LearnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "learn_duration_seconds",
			Help:      "End-to-end duration of learning operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
