package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/cache"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	"github.com/kailas-cloud/askdex/internal/usecase/analyze"
	"github.com/kailas-cloud/askdex/internal/usecase/assemble"
	answeruc "github.com/kailas-cloud/askdex/internal/usecase/answer"
	"github.com/kailas-cloud/askdex/internal/usecase/expand"
	"github.com/kailas-cloud/askdex/internal/usecase/fusion"
	"github.com/kailas-cloud/askdex/internal/usecase/rerank"
)

var errUnscripted = errors.New("unscripted call")

type (
	structuredFunc func(ctx context.Context, call domain.Call) (json.RawMessage, error)
	chatFunc       func(ctx context.Context, call domain.Call) (string, error)
)

// scriptLLM answers by operation name and counts calls.
type scriptLLM struct {
	mu         sync.Mutex
	structured map[string]structuredFunc
	chat       map[string]chatFunc
	calls      map[string]int
}

func newScriptLLM() *scriptLLM {
	return &scriptLLM{
		structured: map[string]structuredFunc{},
		chat:       map[string]chatFunc{},
		calls:      map[string]int{},
	}
}

func (l *scriptLLM) count(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[op]++
}

func (l *scriptLLM) callsTo(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

func (l *scriptLLM) StructuredCall(ctx context.Context, call domain.Call) (json.RawMessage, error) {
	l.count(call.Operation)
	if f, ok := l.structured[call.Operation]; ok {
		return f(ctx, call)
	}
	return nil, domain.NewTransient(call.Operation, errUnscripted)
}

func (l *scriptLLM) ChatCall(ctx context.Context, call domain.Call) (string, error) {
	l.count(call.Operation)
	if f, ok := l.chat[call.Operation]; ok {
		return f(ctx, call)
	}
	return "", domain.NewTransient(call.Operation, errUnscripted)
}

func (l *scriptLLM) judgeReturns(payload string) {
	l.structured[analyze.Operation] = func(context.Context, domain.Call) (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	}
}

// rerankScores scores n candidates 9, 8, 7... in input order.
func (l *scriptLLM) rerankScores(n int) {
	l.structured[rerank.Operation] = func(context.Context, domain.Call) (json.RawMessage, error) {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf(`{"index":%d,"score":%d,"reason":"r%d"}`, i, max(0, 9-i), i)
		}
		return json.RawMessage(`{"scores":[` + strings.Join(parts, ",") + `]}`), nil
	}
}

func (l *scriptLLM) answers(model, text string) {
	prev := l.chat[answeruc.Operation]
	l.chat[answeruc.Operation] = func(ctx context.Context, call domain.Call) (string, error) {
		if call.Model == model {
			return text, nil
		}
		if prev != nil {
			return prev(ctx, call)
		}
		return "", domain.NewTransient(call.Operation, errUnscripted)
	}
}

type fakeRepo struct {
	mu           sync.Mutex
	vector       []candidate.Candidate
	vectorErr    error
	keyword      []candidate.Candidate
	keywordErr   error
	keywordBlock bool
	lastFilter   retrieval.Filter
}

func (r *fakeRepo) VectorSearch(
	_ context.Context, _ []float32, f retrieval.Filter, _ int, _ float64,
) ([]candidate.Candidate, error) {
	r.mu.Lock()
	r.lastFilter = f
	r.mu.Unlock()
	return r.vector, r.vectorErr
}

func (r *fakeRepo) KeywordSearch(
	ctx context.Context, _ string, _ retrieval.Filter, _ int,
) ([]candidate.Candidate, error) {
	if r.keywordBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.keyword, r.keywordErr
}

func (r *fakeRepo) filter() retrieval.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFilter
}

type fakeEmbedder struct {
	err    error
	before func()
	calls  int
}

func (e *fakeEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.before != nil {
		e.before()
	}
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

const branchTimeout = 50 * time.Millisecond

// newPipeline wires the real stages around the fakes.
func newPipeline(t *testing.T, llm *scriptLLM, repo *fakeRepo, emb domain.Embedder, cfg Config) *Service {
	t.Helper()
	nop := zap.NewNop()
	deps := Deps{
		Analyzer: analyze.New(llm, cache.NewMemory[analysis.Analysis]("analysis"), analyze.Config{}, nop),
		Expander: expand.New(llm, cache.NewMemory[[]string]("expansion"), expand.Config{}, nop),
		Embedder: emb,
		Retriever: fusion.New(repo, fusion.Config{
			SimilarityThreshold: 0.3,
			BranchTimeout:       branchTimeout,
		}, nop),
		Reranker:  rerank.New(llm, rerank.Config{Timeout: branchTimeout}, nop),
		Assembler: assemble.New(llm, assemble.WordCounter{}, assemble.Config{}, nop),
		Generator: answeruc.New(llm, answeruc.Config{PrimaryModel: "big", SecondaryModel: "small"}, nop),
	}
	return New(deps, cfg, nop)
}

func passage(id string, vector float64, text string) candidate.Candidate {
	return candidate.Candidate{
		ID:          id,
		DocumentID:  "doc-" + id,
		Text:        text,
		VectorScore: vector,
		Metadata:    candidate.Metadata{Category: analysis.General, TechnicalLevel: 5},
	}
}

func words(tag string, n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("%s%d", tag, i)
	}
	return strings.Join(ws, " ")
}

const comparePayload = `{
	"categories": ["PRODUCT", "COMPANY"],
	"primary_category": "PRODUCT",
	"entities": [{"name": "Acme Corp", "type": "company", "confidence": 0.95}],
	"query_type": "COMPARATIVE",
	"technical_level": 4,
	"estimated_result_count": 5,
	"is_time_dependent": false,
	"visual_focus": false,
	"visual_focus_confidence": 0,
	"requested_visual_types": [],
	"complexity": "moderate"
}`
