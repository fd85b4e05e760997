// Package rerank re-scores fused candidates with an LLM judge and falls back
// to a deterministic heuristic.
package rerank

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// Operation names the judge call.
const Operation = "rerank"

// Defaults for Config.
const (
	DefaultTimeout              = 8 * time.Second
	DefaultMaxCharsPerCandidate = 800
)

// Config tunes the reranker.
type Config struct {
	Model                string
	Timeout              time.Duration
	MaxCharsPerCandidate int
}

// Reranker scores candidates. It never fails and returns one result per input.
type Reranker struct {
	llm    LLM
	cfg    Config
	logger *zap.Logger
}

// New creates a reranker. A nil llm always uses the heuristic.
func New(llm LLM, cfg Config, logger *zap.Logger) *Reranker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxCharsPerCandidate <= 0 {
		cfg.MaxCharsPerCandidate = DefaultMaxCharsPerCandidate
	}
	return &Reranker{llm: llm, cfg: cfg, logger: logger}
}

// Rerank returns cands scored and sorted by rerank score.
func (r *Reranker) Rerank(
	ctx context.Context, query string, a analysis.Analysis, cands []candidate.Candidate,
) []candidate.Ranked {
	out, _ := r.RerankWithOutcome(ctx, query, a, cands)
	return out
}

// RerankWithOutcome is Rerank plus whether the heuristic path was taken
// after a judge failure.
func (r *Reranker) RerankWithOutcome(
	ctx context.Context, query string, a analysis.Analysis, cands []candidate.Candidate,
) ([]candidate.Ranked, domain.Outcome) {
	if len(cands) == 0 {
		return []candidate.Ranked{}, domain.OK
	}
	if r.llm == nil {
		metrics.RerankMethodTotal.WithLabelValues(string(candidate.MethodFallback)).Inc()
		return Fallback(query, a, cands), domain.OK
	}

	out, err := r.judge(ctx, query, a, cands)
	if err != nil {
		logger.FromContext(ctx, r.logger).Warn("Rerank judge failed, using heuristic",
			zap.String("stage", Operation),
			zap.Int("candidates", len(cands)),
			zap.Error(err),
		)
		metrics.RerankMethodTotal.WithLabelValues(string(candidate.MethodFallback)).Inc()
		return Fallback(query, a, cands), domain.Degraded("rerank fallback")
	}
	metrics.RerankMethodTotal.WithLabelValues(string(candidate.MethodLLM)).Inc()
	return out, domain.OK
}

func (r *Reranker) judge(
	ctx context.Context, query string, a analysis.Analysis, cands []candidate.Candidate,
) ([]candidate.Ranked, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	hiring := AboutHiring(query, a)
	raw, err := r.llm.StructuredCall(ctx, domain.Call{
		Operation:   Operation,
		Model:       r.cfg.Model,
		System:      systemPrompt(a, hiring),
		User:        userPrompt(query, cands, r.cfg.MaxCharsPerCandidate),
		Schema:      scoresSchema,
		SchemaName:  "rerank_scores",
		Temperature: 0,
		MaxTokens:   60 * len(cands),
	})
	if err != nil {
		return nil, err
	}

	scores, err := parseScores(raw, len(cands))
	if err != nil {
		return nil, domain.NewMalformed(Operation, err)
	}

	out := make([]candidate.Ranked, len(cands))
	for i, c := range cands {
		score := scores[i].Score / maxJudgeScore
		if c.Metadata.Category == analysis.Hiring && !hiring {
			score *= llmHiringPenalty
		}
		out[i] = candidate.Ranked{
			Candidate:    c,
			RerankScore:  clamp01(score),
			RerankReason: scores[i].Reason,
			RerankMethod: candidate.MethodLLM,
		}
	}
	slices.SortFunc(out, candidate.CompareRanked)
	return out, nil
}
