// Package pipeline answers a query end to end: analyze, expand, retrieve,
// rerank, assemble and generate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/expansion"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
	"github.com/kailas-cloud/askdex/internal/usecase/analyze"
	answeruc "github.com/kailas-cloud/askdex/internal/usecase/answer"
	"github.com/kailas-cloud/askdex/internal/usecase/expand"
	"github.com/kailas-cloud/askdex/internal/usecase/fusion"
)

// Stage names used in metrics, logs and diagnostics.
const (
	StageAnalyze  = "analyze"
	StageExpand   = "expand"
	StageEmbed    = "embed"
	StageRetrieve = "retrieve"
	StageRerank   = "rerank"
	StageAssemble = "assemble"
	StageGenerate = "generate"
)

// DefaultGreeting is the canned reply to small talk.
const DefaultGreeting = "Hello! Ask me anything about our products, pricing or documentation."

// DefaultTopScores is how many results are echoed in diagnostics.
const DefaultTopScores = 5

// Config tunes the pipeline.
type Config struct {
	MaxSources  int
	TokenBudget int
	MaxTerms    int
	Greeting    string
	TopScores   int
}

// Deps are the stages. Expander and Embedder may be nil: a nil expander
// disables expansion, a nil embedder fails every retrieval with
// ErrConfiguration.
type Deps struct {
	Analyzer  Analyzer
	Expander  Expander
	Embedder  domain.Embedder
	Retriever Retriever
	Reranker  Reranker
	Assembler Assembler
	Generator Generator
}

// Request is one caller question.
type Request struct {
	Query   string
	History []query.Message
	Filters query.Filters
}

// Response is the answer plus diagnostics.
type Response struct {
	Answer      answer.Answer
	Diagnostics answer.Diagnostics
}

// AnalyzeResult is the analysis of a query and the knobs derived from it.
type AnalyzeResult struct {
	Analysis analysis.Analysis
	Params   retrieval.Params
	Filter   retrieval.Filter
}

// Service runs the pipeline.
type Service struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New creates a pipeline Service.
func New(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if cfg.TopScores <= 0 {
		cfg.TopScores = DefaultTopScores
	}
	return &Service{deps: deps, cfg: cfg, logger: logger}
}

// run carries the per-request state through the stages.
type run struct {
	q     query.Query
	diag  answer.Diagnostics
	start time.Time
}

func (r *run) observe(stage string, start time.Time) {
	r.diag.StageLatencyMS[stage] = metrics.ObserveStage(stage, start).Milliseconds()
}

func (r *run) degrade(reason string) {
	r.diag.Degrade(reason)
	metrics.DegradationsTotal.WithLabelValues(reason).Inc()
}

func (r *run) record(o domain.Outcome) {
	if o.Degraded {
		r.degrade(o.Reason)
	}
}

// Ask answers req. Errors are returned only for an invalid query, missing
// configuration and cancellation; every provider failure degrades into a
// still valid response.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	q, err := query.New(req.Query, req.History, req.Filters)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	r := &run{
		q: q,
		diag: answer.Diagnostics{
			RequestID:      uuid.NewString(),
			TopScores:      []answer.ScoreSnapshot{},
			Degradations:   []string{},
			StageLatencyMS: map[string]int64{},
		},
		start: time.Now(),
	}
	ctx = logger.With(ctx, s.logger, zap.String("request_id", r.diag.RequestID))
	log := logger.FromContext(ctx, s.logger)

	a, err := s.respond(ctx, r)
	if err != nil {
		log.Info("Ask aborted", zap.Error(err), zap.Duration("elapsed", time.Since(r.start)))
		return Response{}, err
	}
	log.Info("Ask completed",
		zap.String("kind", string(a.Kind)),
		zap.String("analysis_source", r.diag.AnalysisSource),
		zap.String("expansion_type", r.diag.ExpansionType),
		zap.Int("candidates", r.diag.CandidateCount),
		zap.String("rerank_method", string(r.diag.RerankMethod)),
		zap.String("model", r.diag.GeneratorModel),
		zap.Strings("degradations", r.diag.Degradations),
		zap.Duration("elapsed", time.Since(r.start)),
	)
	return Response{Answer: a, Diagnostics: r.diag}, nil
}

func (s *Service) respond(ctx context.Context, r *run) (answer.Answer, error) {
	log := logger.FromContext(ctx, s.logger)
	text := r.q.Text()

	start := time.Now()
	a, outcome := s.deps.Analyzer.AnalyzeWithOutcome(ctx, r.q)
	r.observe(StageAnalyze, start)
	r.record(outcome)
	r.diag.AnalysisSource = string(a.Source)
	if err := ctx.Err(); err != nil {
		return answer.Answer{}, err
	}

	if a.IsGreeting {
		metrics.AnswersTotal.WithLabelValues(string(answer.KindGreeting), "none").Inc()
		return answer.Answer{Text: s.cfg.Greeting, Citations: map[string]answer.Source{}, Kind: answer.KindGreeting}, nil
	}

	params := analyze.DeriveRetrievalParameters(a)
	r.diag.HybridRatio = params.HybridRatio
	r.diag.Limit = params.Limit

	start = time.Now()
	expanded := expansion.Unchanged(text)
	if params.Expand && s.deps.Expander != nil {
		expanded, outcome = s.deps.Expander.ExpandWithOutcome(ctx, text, expand.Options{
			MaxTerms:       s.cfg.MaxTerms,
			TechnicalLevel: a.TechnicalLevel,
			Complexity:     a.Complexity,
			Category:       a.PrimaryCategory,
		})
		r.record(outcome)
	}
	r.observe(StageExpand, start)
	r.diag.ExpansionType = string(expanded.Type)
	if err := ctx.Err(); err != nil {
		return answer.Answer{}, err
	}

	if s.deps.Embedder == nil {
		return answer.Answer{}, fmt.Errorf("%w: no embedder configured", domain.ErrConfiguration)
	}
	start = time.Now()
	emb, err := s.deps.Embedder.Embed(ctx, text)
	r.observe(StageEmbed, start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return answer.Answer{}, ctxErr
		}
		log.Warn("Query embedding failed", zap.String("stage", StageEmbed), zap.Error(err))
		r.degrade("embedding failed")
		return s.insufficient(), nil
	}

	start = time.Now()
	fused, err := s.deps.Retriever.Fuse(ctx, fusion.Request{
		Expanded:    expanded,
		Embedding:   emb.Embedding,
		Filter:      storeFilter(params, r.q.Filters()),
		HybridRatio: params.HybridRatio,
		Limit:       params.Limit,
	})
	r.observe(StageRetrieve, start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return answer.Answer{}, ctxErr
		}
		if errors.Is(err, domain.ErrConfiguration) {
			return answer.Answer{}, err
		}
		log.Warn("Retrieval failed", zap.String("stage", StageRetrieve), zap.Error(err))
		r.degrade("vector branch failed")
		return s.insufficient(), nil
	}
	r.diag.CandidateCount = len(fused.Candidates)
	r.diag.KeywordBranchFailed = fused.KeywordBranchFailed
	if fused.KeywordBranchFailed {
		r.degrade("keyword branch failed")
	}
	if len(fused.Candidates) == 0 {
		return s.insufficient(), nil
	}

	start = time.Now()
	ranked, outcome := s.deps.Reranker.RerankWithOutcome(ctx, text, a, fused.Candidates)
	r.observe(StageRerank, start)
	r.record(outcome)
	if err := ctx.Err(); err != nil {
		return answer.Answer{}, err
	}
	if len(ranked) > 0 {
		r.diag.RerankMethod = ranked[0].RerankMethod
	}
	r.diag.TopScores = topScores(ranked, s.cfg.TopScores)

	start = time.Now()
	actx, outcome := s.deps.Assembler.AssembleWithOutcome(ctx, text, ranked, s.cfg.MaxSources, s.cfg.TokenBudget)
	r.observe(StageAssemble, start)
	r.record(outcome)
	r.diag.Summarized = actx.WasSummarized
	r.diag.Truncated = actx.WasTruncated
	if err := ctx.Err(); err != nil {
		return answer.Answer{}, err
	}

	start = time.Now()
	ans, outcome, err := s.deps.Generator.GenerateWithOutcome(ctx, text, r.q.History(), actx)
	r.observe(StageGenerate, start)
	if err != nil {
		return answer.Answer{}, err
	}
	r.record(outcome)
	r.diag.GeneratorModel = ans.Model
	r.diag.UsedFallbackModel = outcome.Reason == answeruc.ReasonSecondaryModel
	return ans, nil
}

func (s *Service) insufficient() answer.Answer {
	metrics.AnswersTotal.WithLabelValues(string(answer.KindInsufficient), "none").Inc()
	return answer.Insufficient()
}

func topScores(ranked []candidate.Ranked, n int) []answer.ScoreSnapshot {
	out := make([]answer.ScoreSnapshot, 0, min(n, len(ranked)))
	for _, r := range ranked[:min(n, len(ranked))] {
		out = append(out, answer.ScoreSnapshot{ID: r.ID, Fused: r.FusedScore, Rerank: r.RerankScore})
	}
	return out
}

// Analyze classifies text and derives the retrieval knobs without searching.
func (s *Service) Analyze(ctx context.Context, text string, filters query.Filters) (AnalyzeResult, error) {
	q, err := query.New(text, nil, filters)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	a, _ := s.deps.Analyzer.AnalyzeWithOutcome(ctx, q)
	if err := ctx.Err(); err != nil {
		return AnalyzeResult{}, err
	}
	params := analyze.DeriveRetrievalParameters(a)
	return AnalyzeResult{Analysis: a, Params: params, Filter: storeFilter(params, filters)}, nil
}
