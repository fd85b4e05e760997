package analyze

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/cache"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/query"
)

type fakeLLM struct {
	payload string
	err     error
	calls   int
	last    domain.Call
}

func (f *fakeLLM) StructuredCall(_ context.Context, call domain.Call) (json.RawMessage, error) {
	f.calls++
	f.last = call
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAnalyzer(t *testing.T, llm LLM, cfg Config) (*Analyzer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewMemory[analysis.Analysis]("analysis", cache.WithClock(clock.now))
	return New(llm, c, cfg, zap.NewNop()), clock
}

func mustQuery(t *testing.T, text string) query.Query {
	t.Helper()
	q, err := query.New(text, nil, query.Filters{})
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

const pricingPayload = `{
	"categories": ["PRICING", "PRODUCT", "NOT_A_CATEGORY"],
	"primary_category": "PRICING",
	"entities": [{"name": "Pro plan", "type": "product", "confidence": 0.9}],
	"query_type": "FACTUAL",
	"technical_level": 2,
	"estimated_result_count": 4,
	"is_time_dependent": true,
	"visual_focus": false,
	"visual_focus_confidence": 0.1,
	"requested_visual_types": [],
	"complexity": "simple"
}`
