// Package metrics exposes the data server's Prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the data server
var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizstream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// Live stream metrics
	streamConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_stream_connections_total",
			Help: "Total number of live stream connections",
		},
		[]string{"transport"},
	)

	streamConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vizstream_stream_connections_active",
			Help: "Number of open live stream connections",
		},
		[]string{"transport"},
	)

	streamConnectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizstream_stream_connection_duration_seconds",
			Help:    "Lifetime of live stream connections in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"transport"},
	)

	streamPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_stream_points_total",
			Help: "Total number of live points written to clients",
		},
		[]string{"transport"},
	)

	// Bulk data metrics
	generatedPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_generated_points_total",
			Help: "Total number of points produced by bulk endpoints",
		},
		[]string{"endpoint"},
	)

	generateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizstream_generate_duration_seconds",
			Help:    "Time spent producing bulk datasets",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}, // 1ms to 1s
		},
		[]string{"endpoint"},
	)

	aggregateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_aggregate_requests_total",
			Help: "Total number of aggregation requests",
		},
		[]string{"period"},
	)

	// Rate limiting metrics
	rateLimitedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizstream_rate_limited_requests_total",
			Help: "Total number of rate limited requests",
		},
		[]string{"endpoint"},
	)
)

// RecordHTTPRequest records metrics for HTTP requests
func RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	labels := prometheus.Labels{
		"method":      method,
		"path":        path,
		"status_code": strconv.Itoa(statusCode),
	}

	httpRequestsTotal.With(labels).Inc()
	httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// RecordStreamConnection records a new live stream subscriber
func RecordStreamConnection(transport string) {
	streamConnectionsTotal.With(prometheus.Labels{"transport": transport}).Inc()
	streamConnectionsActive.With(prometheus.Labels{"transport": transport}).Inc()
}

// RecordStreamDisconnection records a live stream subscriber leaving after
// being connected for lifetime
func RecordStreamDisconnection(transport string, lifetime time.Duration) {
	labels := prometheus.Labels{"transport": transport}
	streamConnectionsActive.With(labels).Dec()
	streamConnectionDuration.With(labels).Observe(lifetime.Seconds())
}

// RecordStreamPoint records one live point written to a subscriber
func RecordStreamPoint(transport string) {
	streamPointsTotal.With(prometheus.Labels{"transport": transport}).Inc()
}

// RecordGenerated records a bulk dataset produced by endpoint
func RecordGenerated(endpoint string, points int, duration time.Duration) {
	labels := prometheus.Labels{"endpoint": endpoint}
	generatedPointsTotal.With(labels).Add(float64(points))
	generateDuration.With(labels).Observe(duration.Seconds())
}

// RecordAggregateRequest records an aggregation call by period
func RecordAggregateRequest(period string) {
	if period == "" {
		period = "none"
	}
	aggregateRequestsTotal.With(prometheus.Labels{"period": period}).Inc()
}

// RecordRateLimitedRequest records rate limiting metrics
func RecordRateLimitedRequest(endpoint string) {
	rateLimitedRequestsTotal.With(prometheus.Labels{"endpoint": endpoint}).Inc()
}
