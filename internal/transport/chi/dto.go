package chi

import (
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

// Message is one conversation turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// LevelRange is an inclusive technical-level window.
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Filters are optional caller restrictions.
type Filters struct {
	PrimaryCategory     string      `json:"primary_category,omitempty"`
	SecondaryCategories []string    `json:"secondary_categories,omitempty"`
	TechnicalLevel      *LevelRange `json:"technical_level,omitempty"`
	RequiredEntities    []string    `json:"required_entities,omitempty"`
	Keywords            []string    `json:"keywords,omitempty"`
	Strict              bool        `json:"strict,omitempty"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query   string    `json:"query"`
	History []Message `json:"history,omitempty"`
	Filters *Filters  `json:"filters,omitempty"`
}

// AskResponse is the body returned by POST /v1/ask.
type AskResponse struct {
	Answer      string                   `json:"answer"`
	Kind        answer.Kind              `json:"kind"`
	Model       string                   `json:"model,omitempty"`
	Citations   map[string]answer.Source `json:"citations"`
	Diagnostics answer.Diagnostics       `json:"diagnostics"`
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Query   string   `json:"query"`
	Filters *Filters `json:"filters,omitempty"`
}

// AnalyzeResponse is the body returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Analysis analysis.Analysis `json:"analysis"`
	Params   retrieval.Params  `json:"params"`
	Filter   retrieval.Filter  `json:"filter"`
}

func historyFromDTO(ms []Message) []query.Message {
	out := make([]query.Message, len(ms))
	for i, m := range ms {
		out[i] = query.Message{Role: query.Role(m.Role), Text: m.Text}
	}
	return out
}

func filtersFromDTO(f *Filters) query.Filters {
	if f == nil {
		return query.Filters{}
	}
	out := query.Filters{
		PrimaryCategory:     f.PrimaryCategory,
		SecondaryCategories: f.SecondaryCategories,
		RequiredEntities:    f.RequiredEntities,
		Keywords:            f.Keywords,
		Strict:              f.Strict,
	}
	if f.TechnicalLevel != nil {
		out.TechnicalLevel = &query.LevelRange{Min: f.TechnicalLevel.Min, Max: f.TechnicalLevel.Max}
	}
	return out
}

func askResponseFrom(resp pipeline.Response) AskResponse {
	citations := resp.Answer.Citations
	if citations == nil {
		citations = map[string]answer.Source{}
	}
	return AskResponse{
		Answer:      resp.Answer.Text,
		Kind:        resp.Answer.Kind,
		Model:       resp.Answer.Model,
		Citations:   citations,
		Diagnostics: resp.Diagnostics,
	}
}
