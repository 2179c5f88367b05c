// Package metrics declares the Prometheus collectors of the analytics API.
// Every collector is registered with the default registry through promauto
// and exposed by promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkpro"

// HTTP surface, labelled by method, mux route template and status code
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "endpoint", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served by route",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served",
	})
)

// Ingestion rate limiting
var (
	RateLimitedRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "rejected_total",
		Help:      "Tracking requests rejected by the rate limiter",
	})

	RateLimitAllowedRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "allowed_total",
		Help:      "Tracking requests admitted by the rate limiter",
	})
)

// Tracking and aggregation
var (
	EventsTrackedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_tracked_total",
		Help:      "Click and page view events stored",
	}, []string{"type"})

	// AnalyticsQueryDuration covers one aggregator call end to end, store
	// round trips included. operation is profile, traffic, time,
	// quick_stats or compare
	AnalyticsQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "query_duration_seconds",
		Help:      "Duration of analytics computations",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"operation"})
)

// Live updates
var (
	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "subscribers",
		Help:      "Connected live update subscribers",
	})

	RealtimeMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "messages_dropped_total",
		Help:      "Live update messages skipped because a subscriber buffer was full",
	})
)

// PostgreSQL, labelled by repository operation
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "query_duration_seconds",
		Help:      "Duration of database queries",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "errors_total",
		Help:      "Failed database queries",
	}, []string{"operation"})
)

// RecordEventTracked counts one stored event of the given type
func RecordEventTracked(eventType string) {
	EventsTrackedTotal.WithLabelValues(eventType).Inc()
}

func RecordRateLimited() {
	RateLimitedRequestsTotal.Inc()
}

func RecordRateLimitAllowed() {
	RateLimitAllowedRequestsTotal.Inc()
}

func RecordMessageDropped() {
	RealtimeMessagesDropped.Inc()
}
