package analyze

import (
	"slices"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
)

// Tuning constants of DeriveRetrievalParameters.
const (
	baseHybridRatio        = 0.5
	specificityRatioWeight = 0.3
	queryTypeRatioDelta    = 0.1
	technicalWindow        = 3
	companyLimitFloor      = 10
	generalSpecificity     = 0.3
	highSpecificity        = 0.5
)

// DeriveRetrievalParameters turns an analysis into search knobs.
// It is pure: the same analysis always yields the same parameters.
func DeriveRetrievalParameters(a analysis.Analysis) retrieval.Params {
	cs := CompanySpecificity(a.Query, CompanySignals)
	lo, hi := technicalRange(a)
	return retrieval.Params{
		CompanySpecificity: cs,
		HybridRatio:        hybridRatio(a.QueryType, cs),
		Limit:              resultLimit(a, cs),
		CategoryFilter:     categoryFilter(a.PrimaryCategory, a.Categories, cs),
		TechnicalLevelMin:  lo,
		TechnicalLevelMax:  hi,
		Expand:             shouldExpand(a, cs),
	}
}

func hybridRatio(t analysis.QueryType, cs float64) float64 {
	r := baseHybridRatio - specificityRatioWeight*cs
	switch t {
	case analysis.Factual, analysis.Definitional:
		r -= queryTypeRatioDelta
	case analysis.Comparative, analysis.Exploratory:
		r += queryTypeRatioDelta
	}
	return min(retrieval.MaxHybridRatio, max(retrieval.MinHybridRatio, r))
}

func resultLimit(a analysis.Analysis, cs float64) int {
	n := max(1, a.EstimatedResultCount)
	switch a.QueryType {
	case analysis.Comparative, analysis.Exploratory:
		n *= 2
	case analysis.Factual, analysis.Definitional:
		n = max(n, retrieval.MinLimit)
	}
	n = min(retrieval.MaxLimit, max(retrieval.MinLimit, n))
	if cs > highSpecificity {
		n = max(n, companyLimitFloor)
	}
	return n
}

// categoryFilter prefers the primary category, or every category the
// analysis matched when the primary is GENERAL.
func categoryFilter(primary analysis.Category, matched []analysis.Category, cs float64) retrieval.CategoryFilter {
	var cats []analysis.Category
	if primary == analysis.General || primary == "" {
		cats = slices.Clone(matched)
		if !slices.Contains(cats, analysis.General) {
			cats = append(cats, analysis.General)
		}
	} else {
		cats = []analysis.Category{primary}
	}
	if cs > generalSpecificity && !slices.Contains(cats, analysis.General) {
		cats = append(cats, analysis.General)
	}
	return retrieval.CategoryFilter{Categories: cats}
}

// technicalRange is [level-3, level+3] in general, the full range for
// exploratory queries and [level-1, 10] for technical ones.
func technicalRange(a analysis.Analysis) (int, int) {
	level := min(analysis.MaxTechnicalLevel, max(analysis.MinTechnicalLevel, a.TechnicalLevel))
	lo, hi := level-technicalWindow, level+technicalWindow
	if a.QueryType == analysis.Exploratory {
		lo, hi = analysis.MinTechnicalLevel, analysis.MaxTechnicalLevel
	}
	if a.PrimaryCategory == analysis.Technical {
		lo, hi = level-1, analysis.MaxTechnicalLevel
	}
	return max(analysis.MinTechnicalLevel, lo), min(analysis.MaxTechnicalLevel, hi)
}

func shouldExpand(a analysis.Analysis, cs float64) bool {
	if a.QueryType == analysis.Factual && a.HasConfidentEntities() {
		return false
	}
	return cs > highSpecificity ||
		a.QueryType == analysis.Exploratory ||
		a.QueryType == analysis.Comparative ||
		a.PrimaryCategory == analysis.General
}
