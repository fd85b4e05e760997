package answer

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
)

const systemPrompt = `You are the company's assistant. You answer questions using only the context passages you are given.

Rules:
- Use only facts stated in the context. Do not rely on outside knowledge.
- Cite every fact with the marker of the passage it comes from, for example [2].
- Only use markers that appear in the context.
- If the context does not answer the question, say that you don't have enough information.
- Be concise and direct. Prefer short paragraphs or lists.`

func userPrompt(q string, history []query.Message, actx domanswer.Context) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, strings.TrimSpace(m.Text))
		}
		b.WriteString("\n")
	}
	b.WriteString("Context:\n")
	b.WriteString(actx.Text)
	b.WriteString("\n\nSources:\n")
	for _, marker := range sortedMarkers(actx.Citations) {
		src := actx.Citations[marker]
		name := src.Title
		if name == "" {
			name = src.SourceID
		}
		fmt.Fprintf(&b, "%s %s\n", marker, name)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(q)
	return b.String()
}

// sortedMarkers orders markers numerically: [2] before [10].
func sortedMarkers(citations map[string]domanswer.Source) []string {
	keys := slices.Collect(maps.Keys(citations))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return keys
}

// lastMessages bounds history to its n most recent turns.
func lastMessages(history []query.Message, n int) []query.Message {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// cited returns the context citations referenced in text, or all of them
// when text references none.
func cited(text string, citations map[string]domanswer.Source) map[string]domanswer.Source {
	out := make(map[string]domanswer.Source)
	for _, m := range domanswer.Markers(text) {
		if src, ok := citations[m]; ok {
			out[m] = src
		}
	}
	if len(out) == 0 {
		maps.Copy(out, citations)
	}
	return out
}
