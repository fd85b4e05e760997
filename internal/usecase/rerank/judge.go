package rerank

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

const maxJudgeScore = 10

var scoresSchema = domain.MustSchema(&jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"scores": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"index":  {Type: jsonschema.Integer},
					"score":  {Type: jsonschema.Number},
					"reason": {Type: jsonschema.String},
				},
				Required:             []string{"index", "score", "reason"},
				AdditionalProperties: false,
			},
		},
	},
	Required:             []string{"scores"},
	AdditionalProperties: false,
})

type judgeScore struct {
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type judgePayload struct {
	Scores []judgeScore `json:"scores"`
}

func systemPrompt(a analysis.Analysis, hiring bool) string {
	var b strings.Builder
	b.WriteString("You rank passages retrieved for a question about a company.\n")
	b.WriteString("Score every passage from 0 (irrelevant) to 10 (answers the question directly) and give a one-sentence reason.\n")
	b.WriteString("Criteria, in order of importance:\n")
	b.WriteString("1. Textual relevance: does the passage contain facts that answer the question?\n")
	if a.VisualFocus {
		b.WriteString("2. Visual relevance: the user wants visual content")
		if len(a.RequestedVisualTypes) > 0 {
			types := make([]string, len(a.RequestedVisualTypes))
			for i, v := range a.RequestedVisualTypes {
				types[i] = string(v)
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(types, ", "))
		}
		b.WriteString("; passages with a matching visual type weigh heavily.\n")
	}
	b.WriteString("- Content quality is a secondary signal: use it to separate near-ties, lift strong passages slightly and lower borderline ones slightly.\n")
	if !hiring {
		b.WriteString("- Job postings and hiring pages (category HIRING) are almost never what the user wants: score them low.\n")
	}
	b.WriteString("Return a score for every index exactly once.")
	return b.String()
}

func userPrompt(query string, cands []candidate.Candidate, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nPassages:\n", query)
	for i, c := range cands {
		fmt.Fprintf(&b, "\n[%d] category=%s quality=%.2f", i, c.Metadata.Category, c.Metadata.ContentQualityScore)
		if c.Metadata.HasVisual {
			types := make([]string, len(c.Metadata.VisualTypes))
			for j, v := range c.Metadata.VisualTypes {
				types[j] = string(v)
			}
			fmt.Fprintf(&b, " visual=%s", strings.Join(types, ","))
		}
		b.WriteString("\n")
		b.WriteString(truncate(c.DisplayText(), maxChars))
		b.WriteString("\n")
	}
	return b.String()
}

// parseScores validates the judge output against n candidates. Any missing,
// duplicate or out-of-range index makes the whole payload malformed.
func parseScores(raw json.RawMessage, n int) ([]judgeScore, error) {
	var p judgePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	byIndex := make([]*judgeScore, n)
	for i := range p.Scores {
		s := p.Scores[i]
		if s.Index < 0 || s.Index >= n {
			return nil, fmt.Errorf("index %d out of range [0,%d)", s.Index, n)
		}
		if byIndex[s.Index] != nil {
			return nil, fmt.Errorf("duplicate index %d", s.Index)
		}
		if math.IsNaN(s.Score) || math.IsInf(s.Score, 0) {
			return nil, fmt.Errorf("index %d: score is not finite", s.Index)
		}
		s.Score = min(maxJudgeScore, max(0, s.Score))
		byIndex[s.Index] = &s
	}
	out := make([]judgeScore, n)
	for i, s := range byIndex {
		if s == nil {
			return nil, fmt.Errorf("missing score for index %d", i)
		}
		out[i] = *s
	}
	return out, nil
}

// truncate cuts s to at most maxChars characters on a word boundary when possible.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)[:maxChars]
	cut := len(runes)
	for i := len(runes) - 1; i > maxChars/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
