// Package metrics exposes Prometheus instrumentation for import runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsTotal counts reconciled records by jurisdiction, kind, and
	// outcome (inserted, updated, unchanged, skipped).
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legistry_records_total",
		Help: "Reconciled records by jurisdiction, kind, and outcome",
	}, []string{"jurisdiction", "kind", "outcome"})

	// UnresolvedNamesTotal counts names the resolvers could not map to a
	// unique canonical ID.
	UnresolvedNamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legistry_unresolved_names_total",
		Help: "Names that did not resolve to a unique canonical ID",
	}, []string{"jurisdiction", "context"})

	// BatchDuration tracks wall time per jurisdiction batch.
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "legistry_batch_duration_seconds",
		Help:    "Import batch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"jurisdiction"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
