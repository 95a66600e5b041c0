// Package metrics exposes Prometheus counters for share processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"savesense/internal/domain"
)

// Metrics holds all share pipeline Prometheus metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SharesProcessed    *prometheus.CounterVec
	EnrichmentSources  *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
}

// New registers the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SharesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "savesense_shares_processed_total",
			Help: "Share pipeline invocations by entry point and outcome",
		}, []string{"entrypoint", "outcome"}),
		EnrichmentSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "savesense_enrichment_source_total",
			Help: "Metadata resolutions by platform and the source that supplied them",
		}, []string{"platform", "source"}),
		ProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "savesense_processing_duration_seconds",
			Help:    "Time to process a single share",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"entrypoint"}),
	}
	reg.MustRegister(m.SharesProcessed, m.EnrichmentSources, m.ProcessingDuration)
	return m
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveShare records the outcome of one pipeline invocation.
func (m *Metrics) ObserveShare(entrypoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.SharesProcessed.WithLabelValues(entrypoint, outcome).Inc()
	m.ProcessingDuration.WithLabelValues(entrypoint).Observe(took.Seconds())
}

// ObserveEnrichment records which source supplied a link's metadata.
func (m *Metrics) ObserveEnrichment(platform domain.Platform, source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.EnrichmentSources.WithLabelValues(string(platform), source).Inc()
}
