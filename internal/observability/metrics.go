// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RequestTransitions counts lifecycle actions by action and outcome (ok, conflict, error).
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_request_transitions_total",
		Help: "Request lifecycle actions by action and outcome",
	}, []string{"action", "outcome"})

	// RequestsCreated counts requests posted by agents.
	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shaasam_requests_created_total",
		Help: "Total number of requests created by agents",
	})

	// SearchLatency records directory search latency by sort mode.
	SearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shaasam_search_latency_seconds",
		Help:    "Human directory search latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"sort"})

	// SearchResults records the number of humans returned per search.
	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shaasam_search_results",
		Help:    "Number of humans returned per search",
		Buckets: []float64{0, 1, 5, 10, 20, 50},
	})

	// CallbackDeliveries counts outbound callback attempts by outcome.
	CallbackDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_callback_deliveries_total",
		Help: "Outbound request callbacks by outcome",
	}, []string{"outcome"})

	// PaymentEvents counts processor webhook events by type and whether state changed.
	PaymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_payment_events_total",
		Help: "Payment processor events by type and result",
	}, []string{"type", "result"})

	// PaymentActions counts direct settlement actions by action and outcome.
	PaymentActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_payment_actions_total",
		Help: "Settlement actions by action and outcome",
	}, []string{"action", "outcome"})

	// OTPOutcomes counts verification results.
	OTPOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaasam_otp_outcomes_total",
		Help: "OTP start and verify outcomes",
	}, []string{"stage", "outcome"})

	// WebSocketSubscribers is the gauge of connected request-feed subscribers.
	WebSocketSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaasam_websocket_subscribers",
		Help: "Number of connected request event subscribers",
	})
)

// ObserveSearch records latency and result count for one search.
func ObserveSearch(sort string, start time.Time, results int) {
	SearchLatency.WithLabelValues(sort).Observe(time.Since(start).Seconds())
	SearchResults.Observe(float64(results))
}
