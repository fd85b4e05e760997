package rerank

import (
	"slices"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

// Fallback score deltas.
const (
	visualBoost      = 0.1
	visualTypeBoost  = 0.05
	hiringPenalty    = 0.05
	llmHiringPenalty = 0.5
)

var hiringIntent = []string{
	"hiring", "hire", "hires", "job", "jobs", "career", "careers", "position", "positions",
	"vacancy", "vacancies", "recruit", "recruiting", "recruiter", "apply", "application",
	"opening", "openings", "internship", "internships",
}

// AboutHiring reports whether the query explicitly asks about hiring.
func AboutHiring(query string, a analysis.Analysis) bool {
	if a.PrimaryCategory == analysis.Hiring {
		return true
	}
	for _, tok := range tokenize(query) {
		if slices.Contains(hiringIntent, tok) {
			return true
		}
	}
	return false
}

// heuristicScore adjusts the fused score with fixed visual and hiring deltas.
// The result is unbounded above since keyword scores are raw BM25 ranks.
func heuristicScore(c candidate.Candidate, a analysis.Analysis, hiring bool) float64 {
	s := c.FusedScore
	if a.VisualFocus && c.Metadata.HasVisual {
		s += visualBoost
		for _, v := range a.RequestedVisualTypes {
			if c.Metadata.HasVisualType(v) {
				s += visualTypeBoost
				break
			}
		}
	}
	if c.Metadata.Category == analysis.Hiring && !hiring {
		s -= hiringPenalty
	}
	return s
}

// Fallback scores every candidate with the heuristic and sorts the result.
// Scores are scaled by the batch maximum when it exceeds 1, so the order of
// the adjusted fused scores survives the mapping into [0,1].
func Fallback(query string, a analysis.Analysis, cands []candidate.Candidate) []candidate.Ranked {
	hiring := AboutHiring(query, a)
	out := make([]candidate.Ranked, len(cands))
	top := 1.0
	for i, c := range cands {
		s := max(0, heuristicScore(c, a, hiring))
		top = max(top, s)
		out[i] = candidate.Ranked{
			Candidate:    c,
			RerankScore:  s,
			RerankMethod: candidate.MethodFallback,
		}
	}
	for i := range out {
		out[i].RerankScore /= top
	}
	slices.SortFunc(out, candidate.CompareRanked)
	return out
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
