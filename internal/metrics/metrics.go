package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeNoop      = "noop"
	OutcomeError     = "error"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmorate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LedgerOperations counts like and review mark mutations.
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_ledger_operations_total",
			Help: "Total number of like and mark ledger operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// FeedEvents counts events delivered to the in-process feed topic.
	FeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_feed_events_total",
			Help: "Total number of activity events published after commit",
		},
		[]string{"event_type", "operation"},
	)

	FeedPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_feed_publish_errors_total",
			Help: "Total number of activity events that could not be published",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLedger records a like or mark mutation.
func RecordLedger(operation, outcome string) {
	LedgerOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordFeedEvent records an event observed on the feed topic.
func RecordFeedEvent(eventType, operation string) {
	FeedEvents.WithLabelValues(eventType, operation).Inc()
}
