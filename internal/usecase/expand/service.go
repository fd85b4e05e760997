// Package expand augments queries with semantic and lexical variants.
package expand

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/cache"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/expansion"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/logger"
)

// Operation names the semantic expansion call.
const Operation = "expand"

// MaxTermLength is the longest accepted term, in characters.
const MaxTermLength = 59

// DefaultCacheTTL is how long semantic terms are reused.
const DefaultCacheTTL = time.Hour

// Semantic weight tuning.
const (
	baseSemanticWeight  = 0.5
	semanticWeightDelta = 0.2
	maxSemanticWeight   = 0.9
	minSemanticWeight   = 0.3
	technicalThreshold  = 7
)

// Config tunes the expander.
type Config struct {
	Model    string
	MaxTerms int
	CacheTTL time.Duration
}

// Options describe the query being expanded.
type Options struct {
	MaxTerms       int
	TechnicalLevel int
	Complexity     analysis.Complexity
	Category       analysis.Category
}

// Expander merges LLM and rule-based expansion terms.
type Expander struct {
	llm    LLM
	cache  cache.Cache[[]string]
	cfg    Config
	logger *zap.Logger
}

// New creates an expander. A nil llm disables semantic expansion; a nil
// cache disables caching.
func New(llm LLM, c cache.Cache[[]string], cfg Config, logger *zap.Logger) *Expander {
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = expansion.DefaultMaxTerms
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Expander{llm: llm, cache: c, cfg: cfg, logger: logger}
}

// Expand returns text with added terms. It never fails; any problem yields
// the unchanged query.
func (s *Expander) Expand(ctx context.Context, text string, opts Options) expansion.Expanded {
	e, _ := s.ExpandWithOutcome(ctx, text, opts)
	return e
}

// ExpandWithOutcome is Expand plus whether a strategy degraded.
func (s *Expander) ExpandWithOutcome(
	ctx context.Context, text string, opts Options,
) (out expansion.Expanded, outcome domain.Outcome) {
	log := logger.FromContext(ctx, s.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Query expansion panicked", zap.String("stage", Operation), zap.Any("panic", r))
			out, outcome = expansion.Unchanged(text), domain.Degraded("expansion failed")
		}
	}()

	maxTerms := opts.MaxTerms
	if maxTerms <= 0 {
		maxTerms = s.cfg.MaxTerms
	}
	folded := strings.ToLower(text)
	outcome = domain.OK

	weight := SemanticWeight(folded, opts)
	semanticWant := int(math.Round(float64(maxTerms) * weight))

	var semantic []string
	if s.llm != nil && semanticWant > 0 {
		terms, err := s.cachedSemantic(ctx, text, semanticWant)
		if err != nil {
			if ctx.Err() != nil {
				return expansion.Unchanged(text), domain.Degraded("expansion cancelled")
			}
			log.Warn("Semantic expansion failed", zap.String("stage", Operation), zap.Error(err))
			outcome = domain.Degraded("semantic expansion failed")
		}
		semantic = acceptable(terms, folded)
	}
	keyword := acceptable(keywordTerms(text), folded)

	return merge(text, semantic, keyword, maxTerms, semanticWant), outcome
}

func (s *Expander) cachedSemantic(ctx context.Context, text string, n int) ([]string, error) {
	key := fmt.Sprintf("expansion:%d:%s", n, query.Normalize(text))
	if s.cache != nil {
		if terms, ok := s.cache.Get(ctx, key); ok {
			return terms, nil
		}
	}
	terms, err := s.semanticTerms(ctx, text, n)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, terms, s.cfg.CacheTTL)
	}
	return terms, nil
}

// SemanticWeight is the share of terms taken from semantic expansion.
// Technical or complex queries lean semantic; simple pricing and feature
// lookups lean lexical.
func SemanticWeight(foldedQuery string, opts Options) float64 {
	w := baseSemanticWeight
	switch {
	case opts.TechnicalLevel >= technicalThreshold || opts.Complexity == analysis.Complex:
		w = min(maxSemanticWeight, w+semanticWeightDelta)
	case opts.Complexity == analysis.Simple && isPricingOrFeature(foldedQuery, opts.Category):
		w = max(minSemanticWeight, w-semanticWeightDelta)
	}
	return w
}

func isPricingOrFeature(folded string, c analysis.Category) bool {
	if c == analysis.Pricing || c == analysis.Product {
		return true
	}
	for _, tok := range tokenize(folded) {
		switch tok {
		case "price", "prices", "pricing", "cost", "plan", "plans", "feature", "features":
			return true
		}
	}
	return false
}

// acceptable drops empty, overlong, duplicate and already-present terms.
func acceptable(terms []string, foldedQuery string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.Join(strings.Fields(t), " ")
		key := strings.ToLower(t)
		if t == "" || utf8.RuneCountInString(t) > MaxTermLength || seen[key] {
			continue
		}
		if strings.Contains(foldedQuery, key) {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// merge takes up to semanticWant semantic terms, fills the rest from
// keyword terms, dedupes across both and truncates to maxTerms.
func merge(text string, semantic, keyword []string, maxTerms, semanticWant int) expansion.Expanded {
	takeSem := min(semanticWant, len(semantic), maxTerms)
	terms := make([]string, 0, maxTerms)
	seen := make(map[string]bool, maxTerms)
	add := func(t string) bool {
		key := strings.ToLower(t)
		if seen[key] || len(terms) >= maxTerms {
			return false
		}
		seen[key] = true
		terms = append(terms, t)
		return true
	}

	var fromSem, fromKw int
	for _, t := range semantic[:takeSem] {
		if add(t) {
			fromSem++
		}
	}
	for _, t := range keyword {
		if len(terms) >= maxTerms {
			break
		}
		if add(t) {
			fromKw++
		}
	}

	t := expansion.None
	switch {
	case fromSem > 0 && fromKw > 0:
		t = expansion.Hybrid
	case fromSem > 0:
		t = expansion.Semantic
	case fromKw > 0:
		t = expansion.Keyword
	}
	return expansion.New(text, terms, t)
}
