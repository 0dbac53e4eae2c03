// Package observability provides metrics and tracing instrumentation.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updoot_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FeedQueryLatency records feed page query latency.
	FeedQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updoot_feed_query_latency_seconds",
		Help:    "Feed page query latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// VoteTransitions counts vote ledger outcomes by transition case.
	// Cases: "insert" (first vote), "noop" (repeated same-direction vote),
	// "flip" (direction change), "retry" (transient conflict re-run).
	VoteTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updoot_vote_transitions_total",
		Help: "Total vote ledger transitions by case",
	}, []string{"case"})
)

// ObserveFeedQuery records the latency of one feed query given its start time.
func ObserveFeedQuery(start time.Time) {
	FeedQueryLatency.Observe(time.Since(start).Seconds())
}
