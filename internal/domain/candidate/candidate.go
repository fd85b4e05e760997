// Package candidate holds retrieved passages and their ranked form.
package candidate

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
)

// Metadata is the passage metadata attached at ingestion time.
type Metadata struct {
	Category            analysis.Category     `json:"category"`
	TechnicalLevel      int                   `json:"technical_level"`
	ContentQualityScore float64               `json:"content_quality_score"`
	HasVisual           bool                  `json:"has_visual"`
	VisualTypes         []analysis.VisualType `json:"visual_types,omitempty"`
	Source              string                `json:"source,omitempty"`
	Title               string                `json:"title,omitempty"`
}

// HasVisualType reports whether the passage carries visual content of type v.
func (m Metadata) HasVisualType(v analysis.VisualType) bool {
	return slices.Contains(m.VisualTypes, v)
}

// Candidate is one retrieved passage. Text is the context-enriched form used
// for search; OriginalText is shown to the user.
type Candidate struct {
	ID           string   `json:"id"`
	DocumentID   string   `json:"document_id"`
	Text         string   `json:"text"`
	OriginalText string   `json:"original_text"`
	Metadata     Metadata `json:"metadata"`
	VectorScore  float64  `json:"vector_score"`
	KeywordScore float64  `json:"keyword_score"`
	FusedScore   float64  `json:"fused_score"`
}

// DisplayText returns OriginalText, or Text when no original is stored.
func (c Candidate) DisplayText() string {
	if c.OriginalText != "" {
		return c.OriginalText
	}
	return c.Text
}

// SourceID identifies the passage in citations.
func (c Candidate) SourceID() string {
	if c.Metadata.Source != "" {
		return c.Metadata.Source
	}
	if c.DocumentID != "" {
		return c.DocumentID
	}
	return c.ID
}

// Method records which rerank path scored a result.
type Method string

// Rerank methods.
const (
	MethodLLM      Method = "llm"
	MethodFallback Method = "fallback"
)

// Ranked is a candidate with its rerank judgement.
type Ranked struct {
	Candidate
	RerankScore  float64 `json:"rerank_score"`
	RerankReason string  `json:"rerank_reason,omitempty"`
	RerankMethod Method  `json:"rerank_method"`
}

// CompareFused orders by fused score desc, vector score desc, id asc.
func CompareFused(a, b Candidate) int {
	if c := cmp.Compare(b.FusedScore, a.FusedScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.VectorScore, a.VectorScore); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CompareRanked orders by rerank score desc, then like CompareFused
// with the vector score and id tie-breaks.
func CompareRanked(a, b Ranked) int {
	if c := cmp.Compare(b.RerankScore, a.RerankScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.VectorScore, a.VectorScore); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
