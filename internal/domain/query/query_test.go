package query

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  What are   the PRICING tiers? ", "what are the pricing tiers?"},
		{"a\tb\n\nc", "a b c"},
		{"", ""},
		{"ÜBER Ärger", "über ärger"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("   ", nil, Filters{}); err == nil {
		t.Fatal("expected error for blank query")
	}
	if _, err := New("q", nil, Filters{TechnicalLevel: &LevelRange{Min: 8, Max: 2}}); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := New("q", []Message{{Role: "system", Text: "x"}}, Filters{}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestNew_DropsBlankHistory(t *testing.T) {
	q, err := New("hello there", []Message{
		{Role: RoleUser, Text: "first"},
		{Role: RoleAssistant, Text: "  "},
	}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := q.History()
	if len(h) != 1 {
		t.Fatalf("expected 1 history message, got %d", len(h))
	}
	h[0].Text = "mutated"
	if q.History()[0].Text != "first" {
		t.Error("History must return a copy")
	}
}

func TestFilters_IsEmpty(t *testing.T) {
	if !(Filters{}).IsEmpty() {
		t.Error("zero filters should be empty")
	}
	if (Filters{Keywords: []string{"x"}}).IsEmpty() {
		t.Error("filters with keywords should not be empty")
	}
}
