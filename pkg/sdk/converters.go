package askdex

import (
	"time"

	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

func toDomainHistory(ms []Message) []query.Message {
	if len(ms) == 0 {
		return nil
	}
	out := make([]query.Message, len(ms))
	for i, m := range ms {
		out[i] = query.Message{Role: query.Role(m.Role), Text: m.Text}
	}
	return out
}

func toDomainFilters(f Filters) query.Filters {
	out := query.Filters{
		PrimaryCategory:     f.Category,
		SecondaryCategories: f.AlsoCategories,
		RequiredEntities:    f.Entities,
		Keywords:            f.Keywords,
		Strict:              f.Strict,
	}
	if f.TechnicalLevel != nil {
		out.TechnicalLevel = &query.LevelRange{Min: f.TechnicalLevel.Min, Max: f.TechnicalLevel.Max}
	}
	return out
}

func answerFromDomain(resp pipeline.Response) Answer {
	citations := make(map[string]Citation, len(resp.Answer.Citations))
	for marker, s := range resp.Answer.Citations {
		citations[marker] = Citation{
			SourceID:   s.SourceID,
			DocumentID: s.DocumentID,
			ChunkID:    s.ChunkID,
			Title:      s.Title,
		}
	}
	return Answer{
		Text:        resp.Answer.Text,
		Kind:        string(resp.Answer.Kind),
		Model:       resp.Answer.Model,
		Citations:   citations,
		Diagnostics: diagnosticsFromDomain(resp.Diagnostics),
	}
}

func diagnosticsFromDomain(d domanswer.Diagnostics) Diagnostics {
	latency := make(map[string]time.Duration, len(d.StageLatencyMS))
	for stage, ms := range d.StageLatencyMS {
		latency[stage] = time.Duration(ms) * time.Millisecond
	}
	return Diagnostics{
		RequestID:           d.RequestID,
		AnalysisSource:      d.AnalysisSource,
		CandidateCount:      d.CandidateCount,
		KeywordBranchFailed: d.KeywordBranchFailed,
		RerankMethod:        string(d.RerankMethod),
		Summarized:          d.Summarized,
		Truncated:           d.Truncated,
		UsedFallbackModel:   d.UsedFallbackModel,
		Degradations:        append([]string(nil), d.Degradations...),
		StageLatency:        latency,
	}
}

func analysisFromDomain(res pipeline.AnalyzeResult) Analysis {
	a := res.Analysis
	cats := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		cats[i] = string(c)
	}
	entities := make([]string, len(a.Entities))
	for i, e := range a.Entities {
		entities[i] = e.Name
	}
	return Analysis{
		PrimaryCategory: string(a.PrimaryCategory),
		Categories:      cats,
		QueryType:       string(a.QueryType),
		TechnicalLevel:  a.TechnicalLevel,
		Entities:        entities,
		IsGreeting:      a.IsGreeting,
		Source:          string(a.Source),
		HybridRatio:     res.Params.HybridRatio,
		Limit:           res.Params.Limit,
		Expand:          res.Params.Expand,
	}
}
