// Package observability provides metrics and tracing for the catalog service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vellum_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vellum_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DocumentsCreated counts documents published into the catalog.
	DocumentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_documents_created_total",
		Help: "Total number of documents created",
	})

	// StarToggles counts star toggle operations by resulting state.
	StarToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vellum_star_toggles_total",
		Help: "Total number of star toggles by resulting state",
	}, []string{"state"})

	// SearchQueries counts catalog searches by scope.
	SearchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vellum_search_queries_total",
		Help: "Total number of catalog searches by scope",
	}, []string{"scope"})

	// CounterBumpFailures counts dropped fire-and-forget counter increments.
	CounterBumpFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vellum_counter_bump_failures_total",
		Help: "Total number of failed view/download counter increments",
	}, []string{"counter"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
