package analysis

import (
	"math"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func TestNew_DiscardsUnknownTaxonomy(t *testing.T) {
	a := New("q", Raw{
		Categories:      []string{"WEATHER", "pricing", "job posting"},
		PrimaryCategory: "ASTROLOGY",
		QueryType:       "RHETORICAL",
	})
	if a.PrimaryCategory != General {
		t.Errorf("primary = %s, want GENERAL", a.PrimaryCategory)
	}
	want := []Category{General, Pricing, Hiring}
	if !slices.Equal(a.Categories, want) {
		t.Errorf("categories = %v, want %v", a.Categories, want)
	}
	if a.QueryType != Factual {
		t.Errorf("query type = %s, want FACTUAL", a.QueryType)
	}
}

func TestNew_ClampsNumbers(t *testing.T) {
	a := New("q", Raw{
		PrimaryCategory:       "technical",
		TechnicalLevel:        42,
		EstimatedResultCount:  -3,
		VisualFocusConfidence: 1.7,
		Entities: []RawEntity{
			{Name: "Acme Corp", Type: "org", Confidence: 3},
			{Name: "acme corp", Type: "org", Confidence: 0.1},
			{Name: "  ", Confidence: 1},
		},
	})
	if a.TechnicalLevel != MaxTechnicalLevel {
		t.Errorf("technical level = %d", a.TechnicalLevel)
	}
	if a.EstimatedResultCount != 1 {
		t.Errorf("estimated results = %d", a.EstimatedResultCount)
	}
	if a.VisualFocusConfidence != 1 {
		t.Errorf("visual confidence = %f", a.VisualFocusConfidence)
	}
	if len(a.Entities) != 1 || a.Entities[0].Confidence != 1 {
		t.Errorf("entities = %+v", a.Entities)
	}
	if !a.HasConfidentEntities() {
		t.Error("expected confident entity")
	}
}

func TestNew_MissingNumbersTakeDefaults(t *testing.T) {
	a := New("q", Raw{PrimaryCategory: "PRODUCT", TechnicalLevel: math.NaN()})
	if a.TechnicalLevel != DefaultTechnicalLevel {
		t.Errorf("technical level = %d", a.TechnicalLevel)
	}
	if a.EstimatedResultCount != DefaultResultCount {
		t.Errorf("estimated results = %d", a.EstimatedResultCount)
	}
}

func TestNew_VisualTypes(t *testing.T) {
	a := New("q", Raw{RequestedVisualTypes: []string{"Charts", "hologram", "chart", "table"}})
	want := []VisualType{Chart, Table}
	if !slices.Equal(a.RequestedVisualTypes, want) {
		t.Errorf("visual types = %v, want %v", a.RequestedVisualTypes, want)
	}
	if !a.WantsVisual(Table) || a.WantsVisual(Photo) {
		t.Error("WantsVisual mismatch")
	}
}

func TestDefault_IsValid(t *testing.T) {
	d := Default("anything")
	if !d.Valid() {
		t.Fatal("default analysis must be valid")
	}
	if d.Source != SourceDefault || d.PrimaryCategory != General || d.QueryType != Factual {
		t.Errorf("unexpected default: %+v", d)
	}
}

func TestNew_InvariantsHoldForAnyPayload(t *testing.T) {
	pool := []string{"GENERAL", "technical", "Pricing", "HIRING", "JOB_POSTING", "nope", "", "SUPPORT", "company"}
	types := []string{"FACTUAL", "comparative", "bogus", "", "EXPLORATORY"}

	rapid.Check(t, func(t *rapid.T) {
		raw := Raw{
			Categories:            rapid.SliceOfN(rapid.SampledFrom(pool), 0, 6).Draw(t, "categories"),
			PrimaryCategory:       rapid.SampledFrom(pool).Draw(t, "primary"),
			QueryType:             rapid.SampledFrom(types).Draw(t, "type"),
			TechnicalLevel:        rapid.Float64().Draw(t, "level"),
			EstimatedResultCount:  rapid.Float64().Draw(t, "count"),
			VisualFocusConfidence: rapid.Float64().Draw(t, "confidence"),
		}
		a := New("q", raw)
		if len(a.Categories) == 0 {
			t.Fatal("categories empty")
		}
		if !slices.Contains(a.Categories, a.PrimaryCategory) {
			t.Fatalf("primary %s not in %v", a.PrimaryCategory, a.Categories)
		}
		if !a.Valid() {
			t.Fatalf("invalid analysis %+v", a)
		}
	})
}
