package assemble

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/query"
)

const entrySeparator = "\n\n"

type entry struct {
	marker string
	ranked candidate.Ranked
	text   string
}

func formatEntry(n int, r candidate.Ranked) entry {
	marker := answer.Marker(n)
	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(" ")
	b.WriteString(answer.EscapeMarkers(strings.TrimSpace(r.DisplayText())))
	if meta := metadataLine(r.Candidate); meta != "" {
		b.WriteString("\n")
		b.WriteString(meta)
	}
	return entry{marker: marker, ranked: r, text: b.String()}
}

func metadataLine(c candidate.Candidate) string {
	var parts []string
	if c.Metadata.Title != "" {
		parts = append(parts, "title: "+c.Metadata.Title)
	}
	if c.Metadata.Source != "" {
		parts = append(parts, "source: "+c.Metadata.Source)
	}
	if c.Metadata.Category != "" {
		parts = append(parts, "category: "+string(c.Metadata.Category))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func sourceOf(r candidate.Ranked) answer.Source {
	return answer.Source{
		SourceID:   r.SourceID(),
		DocumentID: r.DocumentID,
		ChunkID:    r.ID,
		Title:      r.Metadata.Title,
	}
}

func joinEntries(entries []entry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}
	return strings.Join(texts, entrySeparator)
}

// dedupe drops entries whose normalized text equals, or whose token set is
// at least threshold Jaccard-similar to, an already kept entry.
func dedupe(ranked []candidate.Ranked, threshold float64) []candidate.Ranked {
	out := make([]candidate.Ranked, 0, len(ranked))
	var (
		keptNorm []string
		keptSets []map[string]struct{}
	)
	for _, r := range ranked {
		norm := query.Normalize(r.DisplayText())
		set := tokenSet(norm)
		dup := false
		for i := range keptNorm {
			if norm == keptNorm[i] || jaccard(set, keptSets[i]) >= threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		keptNorm = append(keptNorm, norm)
		keptSets = append(keptSets, set)
		out = append(out, r)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[t] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
