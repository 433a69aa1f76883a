// Package metrics provides Prometheus metrics for notely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Summarize outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_input"
	OutcomeConfig      = "config_error"
	OutcomeUpstream    = "upstream_error"
	OutcomeInternal    = "internal_error"
	OutcomeRateLimited = "rate_limited"
)

var (
	// SummarizeTotal counts gateway requests by outcome.
	SummarizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notely",
			Name:      "summarize_total",
			Help:      "Total number of summarization requests",
		},
		[]string{"outcome"},
	)

	// SummarizeDuration measures upstream call latency.
	SummarizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notely",
			Name:      "summarize_duration_seconds",
			Help:      "Duration of upstream summarization calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// NoteMutationsTotal counts successful note mutations.
	NoteMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notely",
			Name:      "note_mutations_total",
			Help:      "Total number of successful note mutations",
		},
		[]string{"kind"},
	)

	// StoreErrorsTotal counts failed store operations.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notely",
			Name:      "store_errors_total",
			Help:      "Total number of failed store operations",
		},
		[]string{"operation"},
	)
)

// RecordSummarize records one gateway request.
func RecordSummarize(outcome string) {
	SummarizeTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamCall records the latency of one provider call.
func RecordUpstreamCall(provider string, seconds float64) {
	SummarizeDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordMutation records a successful note mutation.
func RecordMutation(kind string) {
	NoteMutationsTotal.WithLabelValues(kind).Inc()
}

// RecordStoreError records a failed store operation.
func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}
