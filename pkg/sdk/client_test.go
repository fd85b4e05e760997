package askdex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background(), WithModels("gpt-4o", ""), WithEmbedding("emb", 8))
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestAppConfig(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("localhost:6380", "pass"),
		WithIndex("docs:idx"),
		WithOpenAI("sk-test", "http://llm.local/v1"),
		WithModels("big", "small"),
		WithEmbedding("emb-3", 256),
		WithQueryInstruction("query: "),
		WithContextBudget(3, 900),
	} {
		o.apply(cfg)
	}

	got, err := cfg.appConfig()
	if err != nil {
		t.Fatalf("appConfig: %v", err)
	}
	if got.Database.Addrs[0] != "localhost:6380" || got.Database.Password != "pass" || got.Database.IndexName != "docs:idx" {
		t.Errorf("database = %+v", got.Database)
	}
	if got.LLM.PrimaryModel != "big" || got.LLM.SecondaryModel != "small" || got.LLM.JudgeModel != "small" {
		t.Errorf("llm = %+v", got.LLM)
	}
	if got.Embedding.APIKey != "sk-test" || got.Embedding.Dimensions != 256 || got.Embedding.QueryInstruction != "query: " {
		t.Errorf("embedding = %+v", got.Embedding)
	}
	if got.Assembler.MaxSources != 3 || got.Assembler.TokenBudget != 900 {
		t.Errorf("assembler = %+v", got.Assembler)
	}
	if got.Cache.Backend != "memory" || got.Assembler.TokenCounter != "words" {
		t.Errorf("defaults not applied: %+v %+v", got.Cache, got.Assembler)
	}
}

func TestAppConfig_SecondaryDefaultsToPrimary(t *testing.T) {
	cfg := &clientConfig{}
	WithRedis("localhost:6379", "").apply(cfg)
	WithModels("big", "").apply(cfg)
	WithEmbedding("emb", 8).apply(cfg)

	got, err := cfg.appConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got.LLM.SecondaryModel != "big" || got.LLM.JudgeModel != "big" {
		t.Errorf("llm = %+v", got.LLM)
	}
}

func TestAppConfig_Required(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no models", []Option{WithRedis("a:1", ""), WithEmbedding("emb", 8)}},
		{"no embedding", []Option{WithRedis("a:1", ""), WithModels("big", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &clientConfig{}
			for _, o := range tt.opts {
				o.apply(cfg)
			}
			if _, err := cfg.appConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_Ask(t *testing.T) {
	var seen pipeline.Request
	c := &Client{pipeline: &mockPipeline{
		askFn: func(_ context.Context, req pipeline.Request) (pipeline.Response, error) {
			seen = req
			return pipeline.Response{
				Answer: domanswer.Answer{
					Text:  "Pro costs $10 [1].",
					Kind:  domanswer.KindGenerated,
					Model: "big",
					Citations: map[string]domanswer.Source{
						"[1]": {SourceID: "pricing.md", DocumentID: "d1", ChunkID: "c1", Title: "Pricing"},
					},
				},
				Diagnostics: domanswer.Diagnostics{
					RequestID:      "r1",
					RerankMethod:   candidate.MethodFallback,
					Degradations:   []string{"rerank fallback"},
					StageLatencyMS: map[string]int64{"rerank": 12},
				},
			}, nil
		},
	}}

	ans, err := c.Ask(context.Background(), Question{
		Text:    "how much is pro?",
		History: []Message{{Role: "user", Text: "hi"}},
		Filters: Filters{Category: "PRICING", TechnicalLevel: &LevelRange{Min: 1, Max: 4}, Strict: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.Query != "how much is pro?" || len(seen.History) != 1 || seen.History[0].Role != query.RoleUser {
		t.Errorf("request = %+v", seen)
	}
	if seen.Filters.PrimaryCategory != "PRICING" || !seen.Filters.Strict || seen.Filters.TechnicalLevel.Max != 4 {
		t.Errorf("filters = %+v", seen.Filters)
	}
	if ans.Text != "Pro costs $10 [1]." || ans.Kind != KindGenerated || ans.Insufficient() {
		t.Errorf("answer = %+v", ans)
	}
	if ans.Citations["[1]"].Title != "Pricing" {
		t.Errorf("citations = %+v", ans.Citations)
	}
	d := ans.Diagnostics
	if d.RequestID != "r1" || d.RerankMethod != "fallback" || d.StageLatency["rerank"] != 12*time.Millisecond {
		t.Errorf("diagnostics = %+v", d)
	}
}

func TestClient_Ask_Error(t *testing.T) {
	c := &Client{pipeline: &mockPipeline{
		askFn: func(context.Context, pipeline.Request) (pipeline.Response, error) {
			return pipeline.Response{}, fmt.Errorf("%w: empty", domain.ErrInvalidQuery)
		},
	}}
	_, err := c.Ask(context.Background(), Question{})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestClient_Analyze(t *testing.T) {
	c := &Client{pipeline: &mockPipeline{
		analyzeFn: func(_ context.Context, text string, _ query.Filters) (pipeline.AnalyzeResult, error) {
			a := analysis.Default(text)
			a.Entities = []analysis.Entity{{Name: "Acme", Type: "company", Confidence: 0.9}}
			return pipeline.AnalyzeResult{
				Analysis: a,
				Params:   retrieval.Params{HybridRatio: 0.4, Limit: 6, Expand: true},
			}, nil
		},
	}}

	got, err := c.Analyze(context.Background(), "tell me about acme", Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if got.PrimaryCategory != "GENERAL" || got.Source != "default" || got.Limit != 6 || !got.Expand {
		t.Errorf("analysis = %+v", got)
	}
	if len(got.Entities) != 1 || got.Entities[0] != "Acme" {
		t.Errorf("entities = %v", got.Entities)
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{health: mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "llm": healthuc.CheckError},
	}}}
	got := c.Health(context.Background())
	if got.Status != "degraded" || got.Checks["llm"] != "error" || !got.Healthy() {
		t.Errorf("health = %+v", got)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

func TestClientOptions_Observability(t *testing.T) {
	cfg := &clientConfig{}
	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"), "degraded")
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(slog.Default(), reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("ask", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("ask", time.Now(), nil, "rerank fallback")
	obs.observe("ask", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "askdex_client_operations_total" {
			found = true
			if len(f.GetMetric()) != 3 {
				t.Errorf("expected ok, degraded and error samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("askdex_client_operations_total not found")
	}
}

func TestObserver_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatal(err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second client on the same registry: %v", err)
	}
}
