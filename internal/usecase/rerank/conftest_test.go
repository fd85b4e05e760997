package rerank

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

type fakeLLM struct {
	payload string
	err     error
	// block waits for the context to end before returning its error.
	block bool
	calls int
	last  domain.Call
}

func (f *fakeLLM) StructuredCall(ctx context.Context, call domain.Call) (json.RawMessage, error) {
	f.calls++
	f.last = call
	if f.block {
		<-ctx.Done()
		return nil, domain.NewTransient(Operation, ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

func cand(id string, fused, vector float64, cat analysis.Category) candidate.Candidate {
	return candidate.Candidate{
		ID:          id,
		Text:        "passage " + id,
		FusedScore:  fused,
		VectorScore: vector,
		Metadata:    candidate.Metadata{Category: cat},
	}
}

func rankedIDs(rs []candidate.Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
