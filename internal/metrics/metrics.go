// Package metrics exposes Prometheus instrumentation for the ledger and its
// HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one server instance.
type Metrics struct {
	registry *prometheus.Registry

	// LedgerOps counts ledger operations by operation and outcome. The
	// outcome label is "ok" or the violated rule's error kind.
	LedgerOps *prometheus.CounterVec

	// HTTPDuration observes request latency by method, route and status.
	HTTPDuration *prometheus.HistogramVec

	// EventsProjected counts notifications consumed by the projector.
	EventsProjected prometheus.Counter
}

// New creates a metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitrix",
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitrix",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		EventsProjected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitrix",
			Name:      "events_projected_total",
			Help:      "Change notifications consumed by the mirror projector.",
		}),
	}
	registry.MustRegister(m.LedgerOps, m.HTTPDuration, m.EventsProjected)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
