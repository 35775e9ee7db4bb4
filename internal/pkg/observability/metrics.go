// Package observability registers the engine's Prometheus metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MatchesTotal counts match attempts by outcome (matched, no_drivers)
	MatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_matches_total",
		Help: "Total driver match attempts by outcome",
	}, []string{"outcome"})

	// TransitionsTotal counts ride status transitions by target status
	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_ride_transitions_total",
		Help: "Total ride status transitions by target status",
	}, []string{"to_status"})

	// PaymentsTotal counts settlement attempts by kind and status
	PaymentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_payments_total",
		Help: "Total payment settlement attempts by kind and status",
	}, []string{"kind", "status"})

	// RateLimitedTotal counts payment attempts rejected by the limiter
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_payments_rate_limited_total",
		Help: "Total payment attempts rejected by the rate limiter",
	})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		MatchesTotal,
		TransitionsTotal,
		PaymentsTotal,
		RateLimitedTotal,
		httpRequestDuration,
	)
}

// ObserveHTTPRequest records one HTTP request observation.
func ObserveHTTPRequest(method, path string, status int, latency time.Duration) {
	httpRequestDuration.
		WithLabelValues(method, path, strconv.Itoa(status)).
		Observe(latency.Seconds())
}
