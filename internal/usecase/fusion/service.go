// Package fusion runs the vector and keyword lookups concurrently and merges
// them into one weighted candidate list.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/expansion"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// Defaults for Config.
const (
	DefaultSimilarityThreshold = 0.3
	DefaultOverFetch           = 2
	DefaultBranchTimeout       = 5 * time.Second
)

// Config tunes the fusion.
type Config struct {
	SimilarityThreshold float64
	OverFetch           int
	BranchTimeout       time.Duration
}

// Request is one fusion input.
type Request struct {
	Expanded    expansion.Expanded
	Embedding   []float32
	Filter      retrieval.Filter
	HybridRatio float64
	Limit       int
}

// Result is the fused candidate list plus branch diagnostics.
type Result struct {
	Candidates          []candidate.Candidate
	VectorHits          int
	KeywordHits         int
	KeywordBranchFailed bool
}

// Service fuses vector and keyword retrieval.
type Service struct {
	repo   Repository
	cfg    Config
	logger *zap.Logger
}

// New creates a fusion service.
func New(repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.SimilarityThreshold < 0 {
		cfg.SimilarityThreshold = 0
	}
	if cfg.OverFetch <= 0 {
		cfg.OverFetch = DefaultOverFetch
	}
	if cfg.BranchTimeout <= 0 {
		cfg.BranchTimeout = DefaultBranchTimeout
	}
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

// Fuse runs both branches concurrently with identical filters. A keyword
// failure degrades to vector-only; a vector failure fails the fusion with
// domain.ErrVectorBranchFailed.
func (s *Service) Fuse(ctx context.Context, req Request) (Result, error) {
	if len(req.Embedding) == 0 {
		return Result{}, fmt.Errorf("fuse: embedding is required: %w", domain.ErrConfiguration)
	}
	if req.Limit <= 0 {
		return Result{}, fmt.Errorf("fuse: limit must be positive: %w", domain.ErrConfiguration)
	}
	if s.repo == nil {
		return Result{}, fmt.Errorf("fuse: no store configured: %w", domain.ErrConfiguration)
	}

	log := logger.FromContext(ctx, s.logger)
	fetch := req.Limit * s.cfg.OverFetch
	text := req.Expanded.Expanded
	if text == "" {
		text = req.Expanded.Original
	}

	var (
		vector, keyword []candidate.Candidate
		keywordErr      error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gctx, s.cfg.BranchTimeout)
		defer cancel()
		var err error
		vector, err = s.repo.VectorSearch(bctx, req.Embedding, req.Filter, fetch, s.cfg.SimilarityThreshold)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrVectorBranchFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gctx, s.cfg.BranchTimeout)
		defer cancel()
		keyword, keywordErr = s.repo.KeywordSearch(bctx, text, req.Filter, fetch)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		log.Warn("Vector branch failed", zap.String("stage", "fusion"), zap.Error(err))
		return Result{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	res := Result{VectorHits: len(vector)}
	if keywordErr != nil {
		res.KeywordBranchFailed = true
		keyword = nil
		metrics.KeywordBranchFailuresTotal.Inc()
		log.Warn("Keyword branch failed, continuing vector-only",
			zap.String("stage", "fusion"),
			zap.Bool("timeout", errors.Is(keywordErr, context.DeadlineExceeded)),
			zap.Error(keywordErr),
		)
	}
	res.KeywordHits = len(keyword)
	res.Candidates = Merge(vector, keyword, req.HybridRatio, req.Limit)

	log.Debug("Fusion completed",
		zap.Int("vector_hits", res.VectorHits),
		zap.Int("keyword_hits", res.KeywordHits),
		zap.Int("fused", len(res.Candidates)),
	)
	return res, nil
}
