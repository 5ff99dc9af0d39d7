package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIAttemptsTotal counts transport attempts per operation and outcome
	APIAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetclinic_api_attempts_total",
			Help: "Total number of API attempts",
		},
		[]string{"operation", "outcome"},
	)

	// APIRetriesTotal counts scheduled retries by the error kind that caused them
	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetclinic_api_retries_total",
			Help: "Total number of API retries",
		},
		[]string{"operation", "kind"},
	)

	// APIDispatchDuration tracks wall time of a whole dispatch, backoff included
	APIDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vetclinic_api_dispatch_seconds",
			Help:    "API dispatch latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"operation", "outcome"},
	)

	FallbackServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetclinic_fallback_served_total",
			Help: "Total number of responses served from the fallback cache",
		},
		[]string{"operation"},
	)

	FallbackWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetclinic_fallback_writes_total",
			Help: "Total number of fallback cache writes",
		},
		[]string{"operation"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeFallback  = "fallback"
	OutcomeCancelled = "cancelled"
)
