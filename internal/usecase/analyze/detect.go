package analyze

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
)

// Detector is a pure yes/no test over query text.
type Detector interface {
	Detect(text string) bool
}

// PatternDetector matches a case-insensitive regular expression.
type PatternDetector struct {
	re *regexp.Regexp
}

// NewPatternDetector compiles words into a word-boundary alternation.
func NewPatternDetector(words ...string) PatternDetector {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return PatternDetector{re: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)}
}

// Detect implements Detector.
func (d PatternDetector) Detect(text string) bool {
	return d.re.MatchString(text)
}

// Signal is a weighted detector contributing to company specificity.
type Signal struct {
	Name     string
	Weight   float64
	Detector Detector
}

// CompanySignals score how strongly a query refers to the company itself.
var CompanySignals = []Signal{
	{
		Name:   "company_reference",
		Weight: 0.5,
		Detector: NewPatternDetector(
			"you", "your", "yours", "we", "our", "ours", "us",
			"the company", "this company", "your company",
		),
	},
	{
		Name:   "product_terminology",
		Weight: 0.3,
		Detector: NewPatternDetector(
			"product", "products", "platform", "feature", "features", "pricing", "price",
			"plan", "plans", "tier", "tiers", "subscription", "api", "integration",
			"integrations", "dashboard", "service", "services", "offering", "roadmap",
		),
	},
	{
		Name:   "people_terminology",
		Weight: 0.2,
		Detector: NewPatternDetector(
			"team", "founder", "founders", "ceo", "cto", "leadership", "employees",
			"staff", "headquarters", "office", "offices", "investors", "customers",
			"partners", "board",
		),
	},
}

// CompanySpecificity is the clamped sum of the weights of matching signals.
func CompanySpecificity(text string, signals []Signal) float64 {
	var score float64
	for _, s := range signals {
		if s.Detector.Detect(text) {
			score += s.Weight
		}
	}
	return min(1, max(0, score))
}

var (
	greetingWords = map[string]bool{
		"hi": true, "hello": true, "hey": true, "howdy": true, "greetings": true,
		"hiya": true, "yo": true, "morning": true, "afternoon": true, "evening": true,
		"thanks": true, "thank": true, "cheers": true,
	}
	greetingFiller = map[string]bool{
		"good": true, "there": true, "you": true, "team": true, "everyone": true,
		"folks": true, "all": true, "again": true, "so": true, "much": true, "a": true, "lot": true,
	}
)

// maxGreetingWords bounds how long a greeting can be before it counts as a question.
const maxGreetingWords = 5

// IsGreeting reports a short pleasantry with no retrieval intent: every word
// is a greeting word or filler and at least one is a greeting word.
func IsGreeting(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 || len(words) > maxGreetingWords {
		return false
	}
	greeted := false
	for _, w := range words {
		switch {
		case greetingWords[w]:
			greeted = true
		case greetingFiller[w]:
		default:
			return false
		}
	}
	return greeted
}

var visualWords = []struct {
	detector Detector
	visual   analysis.VisualType
}{
	{NewPatternDetector("chart", "charts", "graph", "graphs", "plot"), analysis.Chart},
	{NewPatternDetector("diagram", "diagrams", "architecture drawing", "flowchart"), analysis.Diagram},
	{NewPatternDetector("table", "tables", "matrix"), analysis.Table},
	{NewPatternDetector("screenshot", "screenshots", "screen shot"), analysis.Screenshot},
	{NewPatternDetector("photo", "photos", "picture", "pictures", "image", "images"), analysis.Photo},
	{NewPatternDetector("infographic", "infographics"), analysis.Infographic},
}

var genericVisual = NewPatternDetector("show me", "visual", "visualize", "illustrate", "look like")

// visualConfidence is the confidence assigned to a rule-based visual match.
const visualConfidence = 0.6

// DetectVisual returns the requested visual types and whether the query is
// visually focused.
func DetectVisual(text string) ([]analysis.VisualType, bool) {
	var types []analysis.VisualType
	for _, w := range visualWords {
		if w.detector.Detect(text) {
			types = append(types, w.visual)
		}
	}
	return types, len(types) > 0 || genericVisual.Detect(text)
}

// enrich fills the rule-based signals a default analysis lacks.
func enrich(a analysis.Analysis) analysis.Analysis {
	if types, focus := DetectVisual(a.Query); focus {
		a.VisualFocus = true
		a.VisualFocusConfidence = visualConfidence
		a.RequestedVisualTypes = types
		if a.RequestedVisualTypes == nil {
			a.RequestedVisualTypes = []analysis.VisualType{}
		}
	}
	return a
}
