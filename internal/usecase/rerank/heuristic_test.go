package rerank

import (
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
)

func TestAboutHiring(t *testing.T) {
	tests := []struct {
		query string
		a     analysis.Analysis
		want  bool
	}{
		{"Are you hiring engineers?", analysis.Default(""), true},
		{"How do I apply for a position?", analysis.Default(""), true},
		{"What does the API cost?", analysis.Default(""), false},
		{"Tell me about open roles", analysis.New("", analysis.Raw{PrimaryCategory: "HIRING"}), true},
	}
	for _, tt := range tests {
		if got := AboutHiring(tt.query, tt.a); got != tt.want {
			t.Errorf("AboutHiring(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestHeuristicScore(t *testing.T) {
	visual := analysis.Default("show me the pricing chart")
	visual.VisualFocus = true
	visual.RequestedVisualTypes = []analysis.VisualType{analysis.Chart}

	withChart := cand("a", 0.5, 0.5, analysis.Pricing)
	withChart.Metadata.HasVisual = true
	withChart.Metadata.VisualTypes = []analysis.VisualType{analysis.Chart}

	withPhoto := cand("b", 0.5, 0.5, analysis.Pricing)
	withPhoto.Metadata.HasVisual = true
	withPhoto.Metadata.VisualTypes = []analysis.VisualType{analysis.Photo}

	tests := []struct {
		name   string
		c      candidate.Candidate
		a      analysis.Analysis
		hiring bool
		want   float64
	}{
		{"plain", cand("c", 0.5, 0.5, analysis.Pricing), visual, false, 0.5},
		{"visual exact type", withChart, visual, false, 0.65},
		{"visual other type", withPhoto, visual, false, 0.6},
		{"visual without focus", withChart, analysis.Default("x"), false, 0.5},
		{"hiring penalty", cand("d", 0.5, 0.5, analysis.Hiring), analysis.Default("x"), false, 0.45},
		{"hiring query", cand("d", 0.5, 0.5, analysis.Hiring), analysis.Default("x"), true, 0.5},
		{"above one", cand("e", 3.2, 0.5, analysis.General), analysis.Default("x"), false, 3.2},
		{"penalty above one", cand("f", 2, 0.5, analysis.Hiring), analysis.Default("x"), false, 1.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heuristicScore(tt.c, tt.a, tt.hiring); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("heuristicScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallback_KeywordHeavyScores(t *testing.T) {
	cands := []candidate.Candidate{
		cand("weak", 1.2, 0.9, analysis.General),
		cand("strong", 4.0, 0.1, analysis.General),
		cand("penalized", 4.0, 0.1, analysis.Hiring),
	}
	got := Fallback("what is the product", analysis.Default("what is the product"), cands)
	if !slices.Equal(rankedIDs(got), []string{"strong", "penalized", "weak"}) {
		t.Fatalf("order = %v", rankedIDs(got))
	}
	if got[0].RerankScore != 1 {
		t.Errorf("top score = %v, want 1", got[0].RerankScore)
	}
	if math.Abs(got[2].RerankScore-0.3) > 1e-9 {
		t.Errorf("weak score = %v, want 0.3", got[2].RerankScore)
	}
	for _, r := range got {
		if r.RerankScore < 0 || r.RerankScore > 1 {
			t.Fatalf("score %v out of [0,1]", r.RerankScore)
		}
	}
}

func TestFallback_NegativeFloorsAtZero(t *testing.T) {
	got := Fallback("q", analysis.Default("q"), []candidate.Candidate{cand("h", 0.01, 0, analysis.Hiring)})
	if got[0].RerankScore != 0 {
		t.Errorf("score = %v, want 0", got[0].RerankScore)
	}
}

func TestFallback_SortsWithTieBreaks(t *testing.T) {
	cands := []candidate.Candidate{
		cand("c", 0.4, 0.3, analysis.General),
		cand("b", 0.4, 0.6, analysis.General),
		cand("a", 0.4, 0.3, analysis.General),
		cand("h", 0.48, 0.9, analysis.Hiring),
	}
	got := Fallback("what is the product", analysis.Default("what is the product"), cands)
	if !slices.Equal(rankedIDs(got), []string{"h", "b", "a", "c"}) {
		t.Errorf("order = %v", rankedIDs(got))
	}
	for _, r := range got {
		if r.RerankMethod != candidate.MethodFallback {
			t.Fatalf("method = %s", r.RerankMethod)
		}
	}
}
