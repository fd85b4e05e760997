package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// LLM provider metrics. operation is the logical call (analyze, expand,
// rerank, summarize, answer).
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM calls",
		},
		[]string{"operation", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"operation", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed",
		},
		[]string{"operation", "model", "type"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open)",
		},
		[]string{"operation"},
	)
)

// ObserveBreaker records a breaker transition. Matches resilience.StateObserver.
func ObserveBreaker(operation string, _, to gobreaker.State) {
	BreakerState.WithLabelValues(operation).Set(float64(to))
}

func llmCollectors() []prometheus.Collector {
	return []prometheus.Collector{LLMRequestsTotal, LLMRequestDuration, LLMTokensTotal, BreakerState}
}
