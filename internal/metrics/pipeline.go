package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	RerankMethodTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_method_total",
			Help:      "Rerank batches by method (llm, fallback)",
		},
		[]string{"method"},
	)

	SummarizationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarization_total",
			Help:      "Over-budget contexts by outcome (summarized, truncated)",
		},
		[]string{"result"},
	)

	KeywordBranchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyword_branch_failures_total",
			Help:      "Fusions that proceeded vector-only",
		},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Analysis and expansion cache lookups",
		},
		[]string{"cache", "result"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers by kind (generated, insufficient, greeting) and model slot",
		},
		[]string{"kind", "model_slot"},
	)

	DegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Stage fallbacks taken",
		},
		[]string{"reason"},
	)
)

// ObserveStage records the duration of a stage that started at start.
func ObserveStage(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	return d
}

// CacheObserver reports cache lookups to CacheLookupsTotal.
type CacheObserver struct{}

// Observe implements cache.Observer.
func (CacheObserver) Observe(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func pipelineCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		StageDuration,
		RerankMethodTotal,
		SummarizationTotal,
		KeywordBranchFailuresTotal,
		CacheLookupsTotal,
		AnswersTotal,
		DegradationsTotal,
	}
}
