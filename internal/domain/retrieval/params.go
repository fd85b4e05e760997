// Package retrieval holds the concrete search knobs derived from a query analysis.
package retrieval

import "github.com/kailas-cloud/askdex/internal/domain/analysis"

// Bounds of the derived parameters.
const (
	MinHybridRatio = 0.2
	MaxHybridRatio = 0.8
	MinLimit       = 3
	MaxLimit       = 25
)

// CategoryFilter restricts retrieval to categories. A non-strict filter is
// a preference: the store matches any of the categories.
type CategoryFilter struct {
	Categories []analysis.Category `json:"categories"`
	Strict     bool                `json:"strict"`
}

// Params are the search knobs for one query.
type Params struct {
	CompanySpecificity float64        `json:"company_specificity"`
	HybridRatio        float64        `json:"hybrid_ratio"`
	Limit              int            `json:"limit"`
	CategoryFilter     CategoryFilter `json:"category_filter"`
	TechnicalLevelMin  int            `json:"technical_level_min"`
	TechnicalLevelMax  int            `json:"technical_level_max"`
	Expand             bool           `json:"expand"`
}

// VectorWeight is the share of the fused score taken from vector similarity.
func (p Params) VectorWeight() float64 { return p.HybridRatio }

// KeywordWeight is the share of the fused score taken from keyword rank.
func (p Params) KeywordWeight() float64 { return 1 - p.HybridRatio }

// Filter is the store-facing restriction shared by both retrieval branches.
// Zero technical levels mean unbounded.
type Filter struct {
	Categories        []analysis.Category `json:"categories"`
	StrictCategories  bool                `json:"strict_categories"`
	TechnicalLevelMin int                 `json:"technical_level_min"`
	TechnicalLevelMax int                 `json:"technical_level_max"`
	Entities          []string            `json:"entities,omitempty"`
	Keywords          []string            `json:"keywords,omitempty"`
}

// Filter returns the derived store filter of p.
func (p Params) Filter() Filter {
	return Filter{
		Categories:        p.CategoryFilter.Categories,
		StrictCategories:  p.CategoryFilter.Strict,
		TechnicalLevelMin: p.TechnicalLevelMin,
		TechnicalLevelMax: p.TechnicalLevelMax,
	}
}
