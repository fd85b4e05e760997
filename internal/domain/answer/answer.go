// Package answer holds the assembled context, the generated answer and the
// diagnostics returned to callers.
package answer

import "github.com/kailas-cloud/askdex/internal/domain/candidate"

// InsufficientInformation is the fixed answer rendered when nothing grounded can be said.
const InsufficientInformation = "I don't have enough information in the available documents to answer that question."

// Source is what a citation marker points to.
type Source struct {
	SourceID   string `json:"source_id"`
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Title      string `json:"title,omitempty"`
}

// Context is the ordered, cited and budgeted context for generation.
type Context struct {
	Results         []candidate.Ranked `json:"results"`
	Text            string             `json:"text"`
	Citations       map[string]Source  `json:"citations"`
	WasSummarized   bool               `json:"was_summarized"`
	WasTruncated    bool               `json:"was_truncated"`
	EstimatedTokens int                `json:"estimated_tokens"`
}

// IsEmpty reports whether no passage survived assembly.
func (c Context) IsEmpty() bool { return len(c.Results) == 0 || c.Text == "" }

// Kind tells how an answer was produced.
type Kind string

// Answer kinds.
const (
	KindGenerated    Kind = "generated"
	KindInsufficient Kind = "insufficient"
	KindGreeting     Kind = "greeting"
)

// Answer is the final response text with its citations.
type Answer struct {
	Text      string            `json:"text"`
	Citations map[string]Source `json:"citations"`
	Kind      Kind              `json:"kind"`
	Model     string            `json:"model,omitempty"`
}

// Insufficient returns the fixed insufficient-information answer.
func Insufficient() Answer {
	return Answer{Text: InsufficientInformation, Citations: map[string]Source{}, Kind: KindInsufficient}
}

// ScoreSnapshot is the fused and rerank score of one top result.
type ScoreSnapshot struct {
	ID     string  `json:"id"`
	Fused  float64 `json:"fused"`
	Rerank float64 `json:"rerank"`
}

// Diagnostics expose degraded paths that are invisible in the answer text.
type Diagnostics struct {
	RequestID           string           `json:"request_id"`
	AnalysisSource      string           `json:"analysis_source"`
	ExpansionType       string           `json:"expansion_type"`
	HybridRatio         float64          `json:"hybrid_ratio"`
	Limit               int              `json:"limit"`
	CandidateCount      int              `json:"candidate_count"`
	KeywordBranchFailed bool             `json:"keyword_branch_failed"`
	RerankMethod        candidate.Method `json:"rerank_method,omitempty"`
	Summarized          bool             `json:"summarized"`
	Truncated           bool             `json:"truncated"`
	GeneratorModel      string           `json:"generator_model,omitempty"`
	UsedFallbackModel   bool             `json:"used_fallback_model"`
	TopScores           []ScoreSnapshot  `json:"top_scores"`
	Degradations        []string         `json:"degradations"`
	StageLatencyMS      map[string]int64 `json:"stage_latency_ms"`
}

// Degrade records a degraded stage.
func (d *Diagnostics) Degrade(reason string) {
	d.Degradations = append(d.Degradations, reason)
}
