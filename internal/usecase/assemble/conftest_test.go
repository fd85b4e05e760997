package assemble

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

type fakeLLM struct {
	text  string
	err   error
	calls int
	last  domain.Call
}

func (f *fakeLLM) ChatCall(_ context.Context, call domain.Call) (string, error) {
	f.calls++
	f.last = call
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func ranked(id, text string, score float64) candidate.Ranked {
	return candidate.Ranked{
		Candidate: candidate.Candidate{
			ID:         id,
			DocumentID: "doc-" + id,
			Text:       text,
			FusedScore: score,
			Metadata:   candidate.Metadata{Category: analysis.General},
		},
		RerankScore:  score,
		RerankMethod: candidate.MethodLLM,
	}
}

// words returns n distinct words prefixed with tag.
func words(tag string, n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("%s%d", tag, i)
	}
	return strings.Join(ws, " ")
}

func resultIDs(rs []candidate.Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
