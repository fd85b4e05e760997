package pipeline

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/expansion"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/usecase/expand"
	"github.com/kailas-cloud/askdex/internal/usecase/fusion"
)

// Analyzer classifies queries.
type Analyzer interface {
	AnalyzeWithOutcome(ctx context.Context, q query.Query) (analysis.Analysis, domain.Outcome)
}

// Expander adds search terms.
type Expander interface {
	ExpandWithOutcome(ctx context.Context, text string, opts expand.Options) (expansion.Expanded, domain.Outcome)
}

// Retriever runs hybrid retrieval.
type Retriever interface {
	Fuse(ctx context.Context, req fusion.Request) (fusion.Result, error)
}

// Reranker orders candidates by relevance.
type Reranker interface {
	RerankWithOutcome(
		ctx context.Context, query string, a analysis.Analysis, cands []candidate.Candidate,
	) ([]candidate.Ranked, domain.Outcome)
}

// Assembler builds the generation context.
type Assembler interface {
	AssembleWithOutcome(
		ctx context.Context, query string, ranked []candidate.Ranked, maxSources, tokenBudget int,
	) (answer.Context, domain.Outcome)
}

// Generator writes the answer.
type Generator interface {
	GenerateWithOutcome(
		ctx context.Context, q string, history []query.Message, actx answer.Context,
	) (answer.Answer, domain.Outcome, error)
}
