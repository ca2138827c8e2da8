package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PartnershipsRequests counts calls to the partnerships service by operation and result (success|failure).
	PartnershipsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorpass_partnerships_requests_total",
			Help: "Total number of partnerships service calls",
		},
		[]string{"operation", "result"},
	)

	// PartnershipsLatency measures partnerships service call latency.
	PartnershipsLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sponsorpass_partnerships_latency_seconds",
			Help:    "Partnerships service call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PassActions counts create/revoke attempts by outcome (success|failure|invalid).
	PassActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorpass_pass_actions_total",
			Help: "Total number of pass create and revoke attempts",
		},
		[]string{"action", "result"},
	)

	// StaleResponses counts pass fetches discarded because the query changed while they were in flight.
	StaleResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sponsorpass_stale_pass_responses_total",
			Help: "Pass fetch responses discarded as stale",
		},
	)

	// ViewSubscribers tracks connected realtime dashboard clients.
	ViewSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sponsorpass_view_subscribers",
			Help: "Number of connected realtime dashboard clients",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sponsorpass_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Result maps an error to the result label used by the counters above.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
