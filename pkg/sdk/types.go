package askdex

import "time"

// Answer kinds.
const (
	KindGenerated    = "generated"
	KindInsufficient = "insufficient"
	KindGreeting     = "greeting"
)

// Message is one prior conversation turn. Role is "user" or "assistant".
type Message struct {
	Role string
	Text string
}

// LevelRange is an inclusive technical-level window within [1, 10].
type LevelRange struct {
	Min int
	Max int
}

// Filters restrict retrieval. The zero value lets the analysis decide.
type Filters struct {
	Category       string   // primary category, e.g. "PRICING"
	AlsoCategories []string // secondary categories
	TechnicalLevel *LevelRange
	Entities       []string
	Keywords       []string
	Strict         bool // only the primary category
}

// Question is one Ask input.
type Question struct {
	Text    string
	History []Message
	Filters Filters
}

// Citation is what an answer marker such as "[1]" points to.
type Citation struct {
	SourceID   string
	DocumentID string
	ChunkID    string
	Title      string
}

// Diagnostics describe how an answer was produced.
type Diagnostics struct {
	RequestID           string
	AnalysisSource      string // "judge", "default" or "cache"
	CandidateCount      int
	KeywordBranchFailed bool
	RerankMethod        string
	Summarized          bool
	Truncated           bool
	UsedFallbackModel   bool
	Degradations        []string
	StageLatency        map[string]time.Duration
}

// Answer is a grounded answer with its citations.
type Answer struct {
	Text        string
	Kind        string
	Model       string
	Citations   map[string]Citation // marker → source
	Diagnostics Diagnostics
}

// Insufficient reports whether the documents could not answer the question.
func (a Answer) Insufficient() bool { return a.Kind == KindInsufficient }

// Analysis is the classification of a question and the retrieval knobs
// derived from it.
type Analysis struct {
	PrimaryCategory string
	Categories      []string
	QueryType       string
	TechnicalLevel  int
	Entities        []string
	IsGreeting      bool
	Source          string

	HybridRatio float64
	Limit       int
	Expand      bool
}
