// Package metrics exposes Prometheus counters for tracker activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TestsSaved counts saved tests, labelled by action (create, update or import).
	TestsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrank_tests_saved_total",
			Help: "Total number of grand test records saved",
		},
		[]string{"action"},
	)

	TestsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medrank_tests_deleted_total",
			Help: "Total number of grand test records deleted",
		},
	)

	// PersistFailures counts failed writes of the test sequence.
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medrank_persist_failures_total",
			Help: "Total number of failed writes to persisted storage",
		},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrank_exports_total",
			Help: "Total number of spreadsheet exports",
		},
		[]string{"status"}, // ok, empty, error
	)

	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrank_analysis_requests_total",
			Help: "Total number of AI summary requests",
		},
		[]string{"status"}, // ok, no_credential, no_data, error, superseded
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medrank_analysis_duration_seconds",
			Help:    "Time spent waiting for the AI summary service",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
