package pipeline

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
)

// storeFilter merges caller filters over the derived ones. Caller values
// win where given; unknown caller categories are ignored.
func storeFilter(p retrieval.Params, f query.Filters) retrieval.Filter {
	out := p.Filter()

	primary, hasPrimary := analysis.ParseCategory(strings.TrimSpace(f.PrimaryCategory))
	switch {
	case f.Strict && hasPrimary:
		out.Categories = []analysis.Category{primary}
		out.StrictCategories = true
	default:
		var cats []analysis.Category
		if hasPrimary {
			cats = append(cats, primary)
		}
		for _, s := range f.SecondaryCategories {
			if c, ok := analysis.ParseCategory(strings.TrimSpace(s)); ok && !slices.Contains(cats, c) {
				cats = append(cats, c)
			}
		}
		if len(cats) > 0 {
			out.Categories = cats
			out.StrictCategories = false
		}
	}

	if r := f.TechnicalLevel; r != nil {
		out.TechnicalLevelMin = min(analysis.MaxTechnicalLevel, max(analysis.MinTechnicalLevel, r.Min))
		out.TechnicalLevelMax = min(analysis.MaxTechnicalLevel, max(analysis.MinTechnicalLevel, r.Max))
	}
	if len(f.RequiredEntities) > 0 {
		out.Entities = slices.Clone(f.RequiredEntities)
	}
	if len(f.Keywords) > 0 {
		out.Keywords = slices.Clone(f.Keywords)
	}
	return out
}
