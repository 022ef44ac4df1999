package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code", "service"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "service"},
	)

	// Business metrics for comment service
	CommentFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_fetches_total",
			Help: "Total number of comment fetches by outcome",
		},
		[]string{"status", "kind"},
	)

	CommentPagesRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comment_pages_requested_total",
			Help: "Total number of commentThreads pages requested from YouTube",
		},
	)

	CommentsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comments_fetched",
			Help:    "Top-level comments accumulated per successful fetch, before truncation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Database metrics
	MongoOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongo_operations_total",
			Help: "Total number of MongoDB operations",
		},
		[]string{"operation", "collection", "status"},
	)

	MongoOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongo_operation_duration_seconds",
			Help:    "MongoDB operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	// NATS metrics
	NatsMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject", "status"},
	)

	NatsMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_received_total",
			Help: "Total number of NATS messages received",
		},
		[]string{"subject", "status"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version", "environment"},
	)
)

// Initialize metrics with default values
func Init(serviceName, version, environment string) {
	ApplicationInfo.WithLabelValues(serviceName, version, environment).Set(1)
}

// StatusLabel maps an error to the status label used on operation counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
