// Package analyze classifies queries and derives retrieval parameters.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/cache"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/logger"
)

// Operation names the judge call for metrics and circuit breaking.
const Operation = "analyze"

// DefaultCacheTTL is how long an analysis is reused.
const DefaultCacheTTL = 10 * time.Minute

// Config tunes the analyzer.
type Config struct {
	Model    string
	CacheTTL time.Duration
	// CacheFailures stores default analyses too, so a failing judge is not
	// called again for the same query within the TTL.
	CacheFailures bool
}

// Analyzer classifies queries with an LLM judge behind a read-through cache.
type Analyzer struct {
	llm    LLM
	cache  cache.Cache[analysis.Analysis]
	cfg    Config
	logger *zap.Logger
}

// New creates an analyzer. A nil cache disables caching.
func New(llm LLM, c cache.Cache[analysis.Analysis], cfg Config, logger *zap.Logger) *Analyzer {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Analyzer{llm: llm, cache: c, cfg: cfg, logger: logger}
}

// Analyze classifies q. It never fails: any judge problem yields the
// default analysis. Callers check ctx.Err() for cancellation.
func (s *Analyzer) Analyze(ctx context.Context, q query.Query) analysis.Analysis {
	a, _ := s.AnalyzeWithOutcome(ctx, q)
	return a
}

// AnalyzeWithOutcome is Analyze plus whether the default path was taken.
func (s *Analyzer) AnalyzeWithOutcome(ctx context.Context, q query.Query) (analysis.Analysis, domain.Outcome) {
	text := q.Text()
	if IsGreeting(text) {
		a := analysis.Default(text)
		a.IsGreeting = true
		return a, domain.OK
	}

	key := "analysis:" + q.Normalized()
	if s.cache != nil {
		if a, ok := s.cache.Get(ctx, key); ok && a.Valid() {
			a.Query = text
			a.Source = analysis.SourceCache
			return a, domain.OK
		}
	}

	a, err := s.judge(ctx, text)
	outcome := domain.OK
	if err != nil {
		if ctx.Err() != nil {
			return enrich(analysis.Default(text)), domain.Degraded("analysis cancelled")
		}
		logger.FromContext(ctx, s.logger).Warn("Query analysis degraded to default",
			zap.String("stage", Operation),
			zap.Error(err),
		)
		a = enrich(analysis.Default(text))
		outcome = domain.Degraded("analysis default")
	}

	if s.cache != nil && (err == nil || s.cfg.CacheFailures) {
		s.cache.Set(ctx, key, a, s.cfg.CacheTTL)
	}
	return a, outcome
}

func (s *Analyzer) judge(ctx context.Context, text string) (analysis.Analysis, error) {
	if s.llm == nil {
		return analysis.Analysis{}, errors.New("no judge configured")
	}
	raw, err := s.llm.StructuredCall(ctx, domain.Call{
		Operation:   Operation,
		Model:       s.cfg.Model,
		System:      judgeSystemPrompt,
		User:        text,
		Schema:      judgeSchema,
		SchemaName:  "query_analysis",
		Temperature: 0,
		MaxTokens:   600,
	})
	if err != nil {
		return analysis.Analysis{}, err
	}

	var payload analysis.Raw
	if err := json.Unmarshal(raw, &payload); err != nil {
		return analysis.Analysis{}, domain.NewMalformed(Operation, err)
	}
	return analysis.New(text, payload), nil
}
