package expand

import (
	"slices"
	"testing"
)

func TestKeywordTerms_PricingRule(t *testing.T) {
	got := keywordTerms("What does it cost?")
	want := []string{"pricing plans", "subscription options", "price"}
	if !slices.Equal(got, want) {
		t.Errorf("keywordTerms = %v, want %v", got, want)
	}
}

func TestKeywordTerms_CompareRule(t *testing.T) {
	got := keywordTerms("Compare your product to Acme Corp")
	if !slices.Contains(got, "competitive comparison") || !slices.Contains(got, "differentiators") {
		t.Errorf("keywordTerms = %v", got)
	}
}

func TestKeywordTerms_NoMatch(t *testing.T) {
	if got := keywordTerms("hello world"); len(got) != 0 {
		t.Errorf("keywordTerms = %v, want none", got)
	}
}

func TestParseLines(t *testing.T) {
	text := "1. pricing plans\n- \"subscription options\"\n* billing\n\n2) enterprise tier\n• seats"
	got := parseLines(text)
	want := []string{"pricing plans", "subscription options", "billing", "enterprise tier", "seats"}
	if !slices.Equal(got, want) {
		t.Errorf("parseLines = %v, want %v", got, want)
	}
}

func TestAcceptable(t *testing.T) {
	long := "a very long expansion term that goes on and on and on beyond limits"
	got := acceptable([]string{"Pricing", "  ", "plans", "PLANS", long, "tiers"}, "what are the pricing tiers?")
	if !slices.Equal(got, []string{"plans"}) {
		t.Errorf("acceptable = %v", got)
	}
}
