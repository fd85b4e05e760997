package answer

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

type reply struct {
	text string
	err  error
}

// fakeLLM answers per model name.
type fakeLLM struct {
	replies map[string]reply
	models  []string
	last    domain.Call
}

func (f *fakeLLM) ChatCall(_ context.Context, call domain.Call) (string, error) {
	f.models = append(f.models, call.Model)
	f.last = call
	r := f.replies[call.Model]
	return r.text, r.err
}

func testContext() domanswer.Context {
	src := func(id, title string) domanswer.Source {
		return domanswer.Source{SourceID: "doc-" + id, DocumentID: "doc-" + id, ChunkID: id, Title: title}
	}
	res := func(id string) candidate.Ranked {
		return candidate.Ranked{Candidate: candidate.Candidate{ID: id, Metadata: candidate.Metadata{Category: analysis.Pricing}}}
	}
	return domanswer.Context{
		Results: []candidate.Ranked{res("a"), res("b")},
		Text:    "[1] The Pro plan costs $10 per seat.\n\n[2] Enterprise pricing is negotiated.",
		Citations: map[string]domanswer.Source{
			"[1]": src("a", "Pricing"),
			"[2]": src("b", ""),
		},
		EstimatedTokens: 20,
	}
}
