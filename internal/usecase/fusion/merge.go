package fusion

import (
	"slices"

	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

// Merge full-outer-joins the two branches by id and scores each candidate as
// vector*ratio + keyword*(1-ratio). A candidate missing from a branch scores 0
// there. The result is ordered by candidate.CompareFused and truncated to
// limit, so it does not depend on input order.
func Merge(vector, keyword []candidate.Candidate, ratio float64, limit int) []candidate.Candidate {
	merged := make(map[string]*candidate.Candidate, len(vector)+len(keyword))

	for _, c := range vector {
		if existing, ok := merged[c.ID]; ok {
			if c.VectorScore > existing.VectorScore {
				existing.VectorScore = c.VectorScore
			}
			continue
		}
		c.KeywordScore = 0
		merged[c.ID] = &c
	}

	for _, c := range keyword {
		existing, ok := merged[c.ID]
		if !ok {
			c.VectorScore = 0
			merged[c.ID] = &c
			continue
		}
		// Vector branch metadata wins; only the rank statistic is taken.
		existing.KeywordScore = max(existing.KeywordScore, c.KeywordScore)
	}

	out := make([]candidate.Candidate, 0, len(merged))
	for _, c := range merged {
		c.FusedScore = c.VectorScore*ratio + c.KeywordScore*(1-ratio)
		out = append(out, *c)
	}

	slices.SortFunc(out, candidate.CompareFused)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
