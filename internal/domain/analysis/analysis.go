// Package analysis defines the closed query taxonomy and the validated
// QueryAnalysis value produced by the analyzer.
package analysis

import (
	"math"
	"slices"
	"strings"
)

// Category is a closed content category.
type Category string

// The seven categories of the taxonomy.
const (
	General   Category = "GENERAL"
	Technical Category = "TECHNICAL"
	Product   Category = "PRODUCT"
	Pricing   Category = "PRICING"
	Company   Category = "COMPANY"
	Hiring    Category = "HIRING"
	Support   Category = "SUPPORT"
)

// Categories lists the taxonomy in canonical order.
var Categories = []Category{General, Technical, Product, Pricing, Company, Hiring, Support}

var categoryAliases = map[string]Category{
	"JOB_POSTING": Hiring,
	"JOBS":        Hiring,
	"CAREERS":     Hiring,
}

// ParseCategory maps s onto the taxonomy. Unknown strings return false.
func ParseCategory(s string) (Category, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	for _, c := range Categories {
		if string(c) == key {
			return c, true
		}
	}
	return "", false
}

// QueryType is the closed set of query intents.
type QueryType string

// The six query types.
const (
	Factual      QueryType = "FACTUAL"
	Comparative  QueryType = "COMPARATIVE"
	Procedural   QueryType = "PROCEDURAL"
	Explanatory  QueryType = "EXPLANATORY"
	Definitional QueryType = "DEFINITIONAL"
	Exploratory  QueryType = "EXPLORATORY"
)

// QueryTypes lists the query types in canonical order.
var QueryTypes = []QueryType{Factual, Comparative, Procedural, Explanatory, Definitional, Exploratory}

// ParseQueryType maps s onto the closed set. Unknown strings return false.
func ParseQueryType(s string) (QueryType, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range QueryTypes {
		if string(t) == key {
			return t, true
		}
	}
	return "", false
}

// VisualType is a kind of visual content attached to a passage.
type VisualType string

// Known visual types.
const (
	Chart       VisualType = "chart"
	Diagram     VisualType = "diagram"
	Table       VisualType = "table"
	Screenshot  VisualType = "screenshot"
	Photo       VisualType = "photo"
	Infographic VisualType = "infographic"
)

// VisualTypes lists the visual types in canonical order.
var VisualTypes = []VisualType{Chart, Diagram, Table, Screenshot, Photo, Infographic}

// ParseVisualType maps s onto the known visual types.
func ParseVisualType(s string) (VisualType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, "s")
	for _, v := range VisualTypes {
		if string(v) == key {
			return v, true
		}
	}
	return "", false
}

// Complexity is a coarse estimate of how hard the query is.
type Complexity string

// Complexity levels.
const (
	Simple   Complexity = "simple"
	Moderate Complexity = "moderate"
	Complex  Complexity = "complex"
)

// Source records which path produced an analysis.
type Source string

// Analysis sources.
const (
	SourceJudge   Source = "judge"
	SourceDefault Source = "default"
	SourceCache   Source = "cache"
)

// Bounds and defaults of the numeric fields.
const (
	MinTechnicalLevel     = 1
	MaxTechnicalLevel     = 10
	DefaultTechnicalLevel = 5
	DefaultResultCount    = 10
	MaxResultCount        = 100
	// ConfidentEntity is the confidence from which an entity counts as named.
	ConfidentEntity = 0.7
)

// Entity is a named thing mentioned in the query.
type Entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Analysis is the validated classification of a query.
// Build it with New or Default so the invariants hold:
// Categories is never empty and PrimaryCategory is one of them.
type Analysis struct {
	Query                 string       `json:"query"`
	Categories            []Category   `json:"categories"`
	PrimaryCategory       Category     `json:"primary_category"`
	Entities              []Entity     `json:"entities"`
	QueryType             QueryType    `json:"query_type"`
	TechnicalLevel        int          `json:"technical_level"`
	EstimatedResultCount  int          `json:"estimated_result_count"`
	IsTimeDependent       bool         `json:"is_time_dependent"`
	VisualFocus           bool         `json:"visual_focus"`
	VisualFocusConfidence float64      `json:"visual_focus_confidence"`
	RequestedVisualTypes  []VisualType `json:"requested_visual_types"`
	Complexity            Complexity   `json:"complexity"`
	IsGreeting            bool         `json:"is_greeting"`
	Source                Source       `json:"source"`
}

// Raw is the untrusted judge payload.
type Raw struct {
	Categories            []string    `json:"categories"`
	PrimaryCategory       string      `json:"primary_category"`
	Entities              []RawEntity `json:"entities"`
	QueryType             string      `json:"query_type"`
	TechnicalLevel        float64     `json:"technical_level"`
	EstimatedResultCount  float64     `json:"estimated_result_count"`
	IsTimeDependent       bool        `json:"is_time_dependent"`
	VisualFocus           bool        `json:"visual_focus"`
	VisualFocusConfidence float64     `json:"visual_focus_confidence"`
	RequestedVisualTypes  []string    `json:"requested_visual_types"`
	Complexity            string      `json:"complexity"`
}

// RawEntity is an untrusted entity from the judge.
type RawEntity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Default returns the conservative analysis used when the judge is unavailable.
func Default(query string) Analysis {
	return Analysis{
		Query:                query,
		Categories:           []Category{General},
		PrimaryCategory:      General,
		Entities:             []Entity{},
		QueryType:            Factual,
		TechnicalLevel:       DefaultTechnicalLevel,
		EstimatedResultCount: DefaultResultCount,
		RequestedVisualTypes: []VisualType{},
		Complexity:           Moderate,
		Source:               SourceDefault,
	}
}

// New validates a judge payload. Strings outside the taxonomy are discarded,
// numbers are clamped into their bounds and missing numbers take defaults.
func New(query string, raw Raw) Analysis {
	a := Default(query)
	a.Source = SourceJudge

	seen := make(map[Category]bool, len(raw.Categories))
	for _, s := range raw.Categories {
		if c, ok := ParseCategory(s); ok && !seen[c] {
			seen[c] = true
		}
	}
	primary, ok := ParseCategory(raw.PrimaryCategory)
	if !ok {
		primary = General
	}
	seen[primary] = true
	a.Categories = a.Categories[:0]
	for _, c := range Categories {
		if seen[c] {
			a.Categories = append(a.Categories, c)
		}
	}
	a.PrimaryCategory = primary

	if t, ok := ParseQueryType(raw.QueryType); ok {
		a.QueryType = t
	}
	if lvl, ok := finite(raw.TechnicalLevel); ok && lvl != 0 {
		a.TechnicalLevel = int(math.Round(clampFloat(lvl, MinTechnicalLevel, MaxTechnicalLevel)))
	}
	if n, ok := finite(raw.EstimatedResultCount); ok && n != 0 {
		a.EstimatedResultCount = int(math.Round(clampFloat(n, 1, MaxResultCount)))
	}
	a.IsTimeDependent = raw.IsTimeDependent
	a.VisualFocus = raw.VisualFocus
	if c, ok := finite(raw.VisualFocusConfidence); ok {
		a.VisualFocusConfidence = clampFloat(c, 0, 1)
	}
	for _, s := range raw.RequestedVisualTypes {
		if v, ok := ParseVisualType(s); ok && !slices.Contains(a.RequestedVisualTypes, v) {
			a.RequestedVisualTypes = append(a.RequestedVisualTypes, v)
		}
	}
	switch Complexity(strings.ToLower(strings.TrimSpace(raw.Complexity))) {
	case Simple:
		a.Complexity = Simple
	case Complex:
		a.Complexity = Complex
	}

	names := make(map[string]bool, len(raw.Entities))
	for _, e := range raw.Entities {
		name := strings.TrimSpace(e.Name)
		key := strings.ToLower(name)
		if name == "" || names[key] {
			continue
		}
		names[key] = true
		conf, ok := finite(e.Confidence)
		if !ok {
			conf = 0
		}
		a.Entities = append(a.Entities, Entity{
			Name:       name,
			Type:       strings.TrimSpace(e.Type),
			Confidence: clampFloat(conf, 0, 1),
		})
	}
	return a
}

// HasCategory reports whether c is among the categories.
func (a Analysis) HasCategory(c Category) bool {
	return slices.Contains(a.Categories, c)
}

// HasConfidentEntities reports whether at least one entity reaches ConfidentEntity.
func (a Analysis) HasConfidentEntities() bool {
	for _, e := range a.Entities {
		if e.Confidence >= ConfidentEntity {
			return true
		}
	}
	return false
}

// WantsVisual reports whether the query asks for the given visual type.
func (a Analysis) WantsVisual(v VisualType) bool {
	return slices.Contains(a.RequestedVisualTypes, v)
}

// Valid reports whether the invariants hold. Cached values are checked with it.
func (a Analysis) Valid() bool {
	if len(a.Categories) == 0 || !slices.Contains(a.Categories, a.PrimaryCategory) {
		return false
	}
	if a.TechnicalLevel < MinTechnicalLevel || a.TechnicalLevel > MaxTechnicalLevel {
		return false
	}
	if a.EstimatedResultCount < 1 {
		return false
	}
	if _, ok := ParseQueryType(string(a.QueryType)); !ok {
		return false
	}
	return a.VisualFocusConfidence >= 0 && a.VisualFocusConfidence <= 1
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
