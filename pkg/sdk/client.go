package askdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/app"
	"github.com/kailas-cloud/askdex/internal/config"
	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

const defaultReadinessTimeoutSec = 10

// Internal interfaces, substituted in tests.
type pipelineUseCase interface {
	Ask(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	Analyze(ctx context.Context, text string, filters query.Filters) (pipeline.AnalyzeResult, error)
}

// Client is the askdex entry point.
type Client struct {
	store    db.Store
	pipeline pipelineUseCase
	health   healthUseCase
	obs      *observer
}

// New creates a Client and connects to the passage index.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	appCfg, err := cfg.appConfig()
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	// Pipeline internals log through zap; client operations go to slog.
	store, err := app.Connect(ctx, appCfg.Database, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("askdex: %w", err)
	}

	a := app.New(appCfg, store, zap.NewNop())
	return &Client{store: store, pipeline: a.Pipeline, health: a.Health, obs: obs}, nil
}

// appConfig maps the options onto the service configuration.
func (c *clientConfig) appConfig() (config.Config, error) {
	switch {
	case len(c.addrs) == 0:
		return config.Config{}, errors.New("askdex: redis address required (use WithRedis)")
	case c.primaryModel == "":
		return config.Config{}, errors.New("askdex: generator model required (use WithModels)")
	case c.embeddingModel == "":
		return config.Config{}, errors.New("askdex: embedding model required (use WithEmbedding)")
	}

	var cfg config.Config
	cfg.Database = config.DatabaseConfig{
		Addrs:            c.addrs,
		Password:         c.password,
		IndexName:        c.index,
		ReadinessTimeout: defaultReadinessTimeoutSec,
	}
	cfg.LLM = config.LLMConfig{
		APIKey:         c.apiKey,
		BaseURL:        c.baseURL,
		PrimaryModel:   c.primaryModel,
		SecondaryModel: c.secondaryModel,
		JudgeModel:     c.secondaryModel,
		Breaker:        config.BreakerConfig{Enabled: true},
	}
	cfg.Embedding = config.EmbeddingConfig{
		APIKey:           c.apiKey,
		BaseURL:          c.baseURL,
		Model:            c.embeddingModel,
		Dimensions:       c.dimensions,
		QueryInstruction: c.queryInstruction,
		CacheEnabled:     true,
	}
	cfg.Assembler.MaxSources = c.maxSources
	cfg.Assembler.TokenBudget = c.tokenBudget
	cfg.ApplyDefaults()
	return cfg, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks index connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ask answers q from the indexed passages. Provider failures degrade the
// answer instead of failing; errors are invalid questions, missing
// configuration and cancellation.
func (c *Client) Ask(ctx context.Context, q Question) (Answer, error) {
	start := time.Now()
	resp, err := c.pipeline.Ask(ctx, pipeline.Request{
		Query:   q.Text,
		History: toDomainHistory(q.History),
		Filters: toDomainFilters(q.Filters),
	})
	c.obs.observe("ask", start, err, resp.Diagnostics.Degradations...)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return answerFromDomain(resp), nil
}

// Analyze classifies text and returns the retrieval knobs Ask would use.
func (c *Client) Analyze(ctx context.Context, text string, f Filters) (Analysis, error) {
	start := time.Now()
	res, err := c.pipeline.Analyze(ctx, text, toDomainFilters(f))
	c.obs.observe("analyze", start, err)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	return analysisFromDomain(res), nil
}
