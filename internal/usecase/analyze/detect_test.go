package analyze

import (
	"slices"
	"testing"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
)

func TestCompanySpecificity(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"What is a vector database?", 0},
		{"What do you do?", 0.5},
		{"Which pricing tiers exist?", 0.3},
		{"Who are the founders?", 0.2},
		{"Who is on your team and what does your platform cost?", 1},
		{"Does your product integrate with Slack?", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := CompanySpecificity(tt.text, CompanySignals)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CompanySpecificity(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hi", true},
		{"Hello there!", true},
		{"good morning team", true},
		{"Thanks so much", true},
		{"hey, what's the price?", false},
		{"hello world program in go", false},
		{"there", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGreeting(tt.text); got != tt.want {
			t.Errorf("IsGreeting(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectVisual(t *testing.T) {
	types, focus := DetectVisual("Show me the architecture diagram and a pricing table")
	if !focus {
		t.Fatal("expected visual focus")
	}
	if !slices.Equal(types, []analysis.VisualType{analysis.Diagram, analysis.Table}) {
		t.Errorf("types = %v", types)
	}

	types, focus = DetectVisual("show me how billing works")
	if !focus || len(types) != 0 {
		t.Errorf("generic visual request: focus=%v types=%v", focus, types)
	}

	if _, focus = DetectVisual("How do refunds work?"); focus {
		t.Error("unexpected visual focus")
	}
}
