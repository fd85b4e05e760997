// Package app wires the pipeline stages, providers and store into a
// runnable service. Both the HTTP server and the CLI build through it.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/cache"
	"github.com/kailas-cloud/askdex/internal/config"
	"github.com/kailas-cloud/askdex/internal/db"
	dbRedis "github.com/kailas-cloud/askdex/internal/db/redis"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/metrics"
	"github.com/kailas-cloud/askdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/askdex/internal/repository/search"
	"github.com/kailas-cloud/askdex/internal/resilience"
	openaiTransport "github.com/kailas-cloud/askdex/internal/transport/openai"
	"github.com/kailas-cloud/askdex/internal/usecase/analyze"
	answeruc "github.com/kailas-cloud/askdex/internal/usecase/answer"
	"github.com/kailas-cloud/askdex/internal/usecase/assemble"
	embeddinguc "github.com/kailas-cloud/askdex/internal/usecase/embedding"
	"github.com/kailas-cloud/askdex/internal/usecase/expand"
	"github.com/kailas-cloud/askdex/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
	"github.com/kailas-cloud/askdex/internal/usecase/rerank"
)

// App is the assembled service.
type App struct {
	Pipeline *pipeline.Service
	Health   *healthuc.Service
}

// Connect opens the store and waits until it answers. The caller closes it.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, config.Duration(cfg.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	exists, err := store.IndexExists(ctx, cfg.IndexName)
	switch {
	case err != nil:
		logger.Warn("Cannot inspect passage index", zap.String("index", cfg.IndexName), zap.Error(err))
	case !exists:
		// Retrieval returns nothing until ingestion creates the index.
		logger.Warn("Passage index does not exist yet", zap.String("index", cfg.IndexName))
	}
	return store, nil
}

// New builds the pipeline over store.
func New(cfg config.Config, store db.Store, logger *zap.Logger) *App {
	exec := resilience.NewExecutor(breakerConfig(cfg.LLM.Breaker), logger, metrics.ObserveBreaker)
	llm := openaiTransport.NewLLM(&openaiTransport.LLMConfig{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		DefaultModel:  cfg.LLM.PrimaryModel,
		Timeout:       config.Duration(cfg.LLM.TimeoutSec),
		MaxInputChars: cfg.LLM.MaxInputChars,
		Executor:      exec,
		Logger:        logger,
	})
	embedder := buildEmbedder(cfg.Embedding, store, logger)

	deps := pipeline.Deps{
		Analyzer: analyze.New(llm, newCache[analysis.Analysis]("analysis", cfg.Cache, store, logger), analyze.Config{
			Model:         cfg.LLM.JudgeModel,
			CacheTTL:      config.Duration(cfg.Analysis.CacheTTLSec),
			CacheFailures: cfg.Analysis.CacheFailures == nil || *cfg.Analysis.CacheFailures,
		}, logger),
		Embedder: embedder,
		Retriever: fusion.New(searchrepo.New(store, searchrepo.Config{
			IndexName: cfg.Database.IndexName,
			KeyPrefix: cfg.Database.KeyPrefix,
		}), fusion.Config{
			SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
			OverFetch:           cfg.Retrieval.OverFetch,
			BranchTimeout:       time.Duration(cfg.Retrieval.BranchTimeoutMS) * time.Millisecond,
		}, logger),
		Reranker: rerank.New(llm, rerank.Config{
			Model:                cfg.LLM.JudgeModel,
			Timeout:              config.Duration(cfg.Rerank.TimeoutSec),
			MaxCharsPerCandidate: cfg.Rerank.MaxCharsPerCandidate,
		}, logger),
		Assembler: assemble.New(llm, tokenCounter(cfg.Assembler, logger), assemble.Config{
			Model:           summaryModel(cfg.LLM),
			MaxSources:      cfg.Assembler.MaxSources,
			TokenBudget:     cfg.Assembler.TokenBudget,
			DedupeThreshold: cfg.Assembler.DedupeThreshold,
			WordsPerToken:   cfg.Assembler.WordsPerToken,
		}, logger),
		Generator: answeruc.New(llm, answeruc.Config{
			PrimaryModel:    cfg.LLM.PrimaryModel,
			SecondaryModel:  cfg.LLM.SecondaryModel,
			HistoryMessages: cfg.Answer.HistoryMessages,
			MaxTokens:       cfg.Answer.MaxTokens,
		}, logger),
	}
	// Leave the interface nil when disabled, not a typed nil pointer.
	if cfg.Expansion.Enabled == nil || *cfg.Expansion.Enabled {
		deps.Expander = expand.New(llm, newCache[[]string]("expansion", cfg.Cache, store, logger), expand.Config{
			Model:    cfg.LLM.JudgeModel,
			MaxTerms: cfg.Expansion.MaxTerms,
			CacheTTL: config.Duration(cfg.Expansion.CacheTTLSec),
		}, logger)
	}

	return &App{
		Pipeline: pipeline.New(deps, pipeline.Config{
			MaxSources:  cfg.Assembler.MaxSources,
			TokenBudget: cfg.Assembler.TokenBudget,
			MaxTerms:    cfg.Expansion.MaxTerms,
			Greeting:    cfg.Answer.Greeting,
		}, logger),
		Health: healthuc.New(store, map[string]healthuc.ProviderChecker{
			"embedding": embedder,
			"llm":       llm,
		}),
	}
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
func buildEmbedder(cfg config.EmbeddingConfig, store db.KVStore, logger *zap.Logger) *domain.InstructionEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    config.Duration(cfg.TimeoutSec),
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.CacheEnabled && store != nil {
		namespace := fmt.Sprintf("%s:%d", cfg.Model, cfg.Dimensions)
		embedder = embcache.New(base, store, namespace, config.Duration(cfg.CacheTTLSec), metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Outermost, so cached vectors are keyed by the instructed text.
	return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
}

func newCache[V any](name string, cfg config.CacheConfig, store db.KVStore, logger *zap.Logger) cache.Cache[V] {
	if cfg.Backend == "redis" && store != nil {
		return cache.NewRedis[V](name, store, metrics.CacheObserver{}, logger)
	}
	opts := []cache.MemoryOption{cache.WithObserver(metrics.CacheObserver{})}
	if cfg.MaxEntries > 0 {
		opts = append(opts, cache.WithMaxEntries(cfg.MaxEntries))
	}
	return cache.NewMemory[V](name, opts...)
}

func tokenCounter(cfg config.AssemblerConfig, logger *zap.Logger) assemble.TokenCounter {
	words := assemble.WordCounter{WordsPerToken: cfg.WordsPerToken}
	if cfg.TokenCounter == "tiktoken" {
		return assemble.NewTiktokenCounter(cfg.Encoding, words, logger)
	}
	return words
}

// summaryModel picks the summarization model: summary_model, then the judge,
// then the primary.
func summaryModel(llm config.LLMConfig) string {
	for _, m := range []string{llm.SummaryModel, llm.JudgeModel, llm.PrimaryModel} {
		if m != "" {
			return m
		}
	}
	return ""
}

func breakerConfig(b config.BreakerConfig) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        b.RetryAttempts,
		BreakerEnabled:          b.Enabled,
		BreakerMinRequests:      b.MinRequests,
		BreakerFailureRatio:     b.FailureRatio,
		BreakerOpenTimeout:      config.Duration(b.OpenTimeoutSec),
		BreakerHalfOpenMaxCalls: b.HalfOpenMaxCalls,
	}
}
