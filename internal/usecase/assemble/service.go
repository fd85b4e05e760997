// Package assemble selects, dedupes, cites and budgets the generation context.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// Operation names the summarization call.
const Operation = "summarize"

// Defaults for Config.
const (
	DefaultMaxSources      = 5
	DefaultTokenBudget     = 2000
	DefaultDedupeThreshold = 0.9
	DefaultTimeout         = 15 * time.Second
)

const summarizeSystemPrompt = `You condense retrieved passages so another model can answer a question.
Keep every fact that helps answer the question and drop the rest.
Keep the citation markers like [1] next to the facts they support. Never invent markers.
Stay within %d words.`

// Config tunes the assembler.
type Config struct {
	Model           string
	MaxSources      int
	TokenBudget     int
	DedupeThreshold float64
	Timeout         time.Duration
	// WordsPerToken sets the summary word target. Zero takes the ratio of a
	// WordCounter counter, or DefaultWordsPerToken.
	WordsPerToken float64
}

// Assembler builds answer.Context values.
type Assembler struct {
	llm     LLM
	counter TokenCounter
	cfg     Config
	logger  *zap.Logger
}

// New creates an assembler. A nil llm skips summarization and truncates; a
// nil counter uses WordCounter with the default ratio.
func New(llm LLM, counter TokenCounter, cfg Config, logger *zap.Logger) *Assembler {
	if counter == nil {
		counter = WordCounter{WordsPerToken: DefaultWordsPerToken}
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = DefaultMaxSources
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultTokenBudget
	}
	if cfg.DedupeThreshold <= 0 || cfg.DedupeThreshold > 1 {
		cfg.DedupeThreshold = DefaultDedupeThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WordsPerToken <= 0 {
		cfg.WordsPerToken = DefaultWordsPerToken
		if wc, ok := counter.(WordCounter); ok && wc.WordsPerToken > 0 {
			cfg.WordsPerToken = wc.WordsPerToken
		}
	}
	return &Assembler{llm: llm, counter: counter, cfg: cfg, logger: logger}
}

// Assemble builds the context for query from ranked results. Zero maxSources
// or tokenBudget take the configured defaults. The estimated token count of
// the result never exceeds tokenBudget and every marker in its text has a
// citation.
func (s *Assembler) Assemble(
	ctx context.Context, query string, ranked []candidate.Ranked, maxSources, tokenBudget int,
) answer.Context {
	out, _ := s.AssembleWithOutcome(ctx, query, ranked, maxSources, tokenBudget)
	return out
}

// AssembleWithOutcome is Assemble plus whether summarization failed.
func (s *Assembler) AssembleWithOutcome(
	ctx context.Context, query string, ranked []candidate.Ranked, maxSources, tokenBudget int,
) (answer.Context, domain.Outcome) {
	if maxSources <= 0 {
		maxSources = s.cfg.MaxSources
	}
	if tokenBudget <= 0 {
		tokenBudget = s.cfg.TokenBudget
	}

	sorted := slices.Clone(ranked)
	slices.SortFunc(sorted, candidate.CompareRanked)
	if len(sorted) > maxSources {
		sorted = sorted[:maxSources]
	}
	selected := dedupe(sorted, s.cfg.DedupeThreshold)
	if len(selected) == 0 {
		return emptyContext(), domain.OK
	}

	entries := make([]entry, len(selected))
	for i, r := range selected {
		entries[i] = formatEntry(i+1, r)
	}
	full := joinEntries(entries)
	tokens := s.counter.Count(full)
	if tokens <= tokenBudget {
		return build(entries, full, tokens), domain.OK
	}

	log := logger.FromContext(ctx, s.logger)
	summary, err := s.summarize(ctx, query, full, entries, tokenBudget)
	if err == nil {
		metrics.SummarizationTotal.WithLabelValues("summarized").Inc()
		c := build(survivors(entries, summary), summary, s.counter.Count(summary))
		c.WasSummarized = true
		return c, domain.OK
	}

	log.Warn("Context summarization failed, truncating",
		zap.String("stage", "assemble"),
		zap.Int("estimated_tokens", tokens),
		zap.Int("token_budget", tokenBudget),
		zap.Error(err),
	)
	metrics.SummarizationTotal.WithLabelValues("truncated").Inc()
	c := s.truncate(entries, tokenBudget)
	return c, domain.Degraded("summarization failed")
}

var errNoSummarizer = errors.New("no summarizer configured")

func (s *Assembler) summarize(
	ctx context.Context, query, full string, entries []entry, budget int,
) (string, error) {
	if s.llm == nil {
		return "", errNoSummarizer
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	words := int(float64(budget) * s.cfg.WordsPerToken)
	text, err := s.llm.ChatCall(ctx, domain.Call{
		Operation:   Operation,
		Model:       s.cfg.Model,
		System:      fmt.Sprintf(summarizeSystemPrompt, words),
		User:        fmt.Sprintf("Question: %s\n\nPassages:\n%s", query, full),
		Temperature: 0,
		MaxTokens:   budget,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewMalformed(Operation, domain.ErrEmptyResult)
	}
	if n := s.counter.Count(text); n > budget {
		return "", domain.NewMalformed(Operation, fmt.Errorf("summary has %d tokens, budget %d", n, budget))
	}

	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.marker] = true
	}
	text = answer.KeepMarkers(text, func(m string) bool { return known[m] })
	if len(answer.Markers(text)) == 0 {
		return "", domain.NewMalformed(Operation, errors.New("summary dropped every citation marker"))
	}
	return text, nil
}

// truncate keeps whole entries in rank order while they fit. When not even
// the first entry fits, its text is cut word by word.
func (s *Assembler) truncate(entries []entry, budget int) answer.Context {
	var kept []entry
	for _, e := range entries {
		candidateText := joinEntries(append(slices.Clone(kept), e))
		if s.counter.Count(candidateText) > budget {
			break
		}
		kept = append(kept, e)
	}

	if len(kept) == 0 {
		first := entries[0]
		words := strings.Fields(first.text)
		// Largest prefix that fits; the marker and one word at minimum.
		n := sort.Search(len(words)+1, func(i int) bool {
			return s.counter.Count(strings.Join(words[:i], " ")) > budget
		}) - 1
		if n >= 2 {
			first.text = strings.Join(words[:n], " ")
			kept = []entry{first}
		}
	}
	if len(kept) == 0 {
		c := emptyContext()
		c.WasTruncated = true
		return c
	}

	text := joinEntries(kept)
	c := build(kept, text, s.counter.Count(text))
	c.WasTruncated = true
	return c
}

// survivors keeps the entries whose markers appear in text.
func survivors(entries []entry, text string) []entry {
	present := map[string]bool{}
	for _, m := range answer.Markers(text) {
		present[m] = true
	}
	var out []entry
	for _, e := range entries {
		if present[e.marker] {
			out = append(out, e)
		}
	}
	return out
}

func build(entries []entry, text string, tokens int) answer.Context {
	c := answer.Context{
		Results:         make([]candidate.Ranked, len(entries)),
		Text:            text,
		Citations:       make(map[string]answer.Source, len(entries)),
		EstimatedTokens: tokens,
	}
	for i, e := range entries {
		c.Results[i] = e.ranked
		c.Citations[e.marker] = sourceOf(e.ranked)
	}
	return c
}

func emptyContext() answer.Context {
	return answer.Context{Results: []candidate.Ranked{}, Citations: map[string]answer.Source{}}
}
