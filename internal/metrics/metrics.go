// Package metrics exposes Prometheus instrumentation for the API.
//
// Metrics are served at /metrics in the Prometheus text format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymapp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymapp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Recommendation pipeline
	DroppedReferences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymapp_recommend_dropped_references_total",
			Help: "Workout items skipped because their equipment reference did not resolve",
		},
		[]string{"ranker"},
	)

	RecommendationsServed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gymapp_recommendations_returned",
			Help:    "Number of equipment records returned per recommendation request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	// AI boundary
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymapp_ai_requests_total",
			Help: "Calls to the AI provider by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AIFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymapp_ai_fallbacks_total",
			Help: "Degraded AI results returned instead of a provider answer",
		},
		[]string{"operation", "reason"},
	)

	AICircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymapp_ai_circuit_breaker_state",
			Help: "Circuit breaker state for the AI provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordDropped adds n dropped references for the named ranker. Zero is a no-op.
func RecordDropped(ranker string, n int) {
	if n <= 0 {
		return
	}
	DroppedReferences.WithLabelValues(ranker).Add(float64(n))
}

// RecordAIRequest counts one provider call for operation with the given outcome.
func RecordAIRequest(operation, outcome string) {
	AIRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordAIFallback counts one degraded result for operation.
func RecordAIFallback(operation, reason string) {
	AIFallbacksTotal.WithLabelValues(operation, reason).Inc()
}
