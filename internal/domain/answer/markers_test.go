package answer

import (
	"slices"
	"testing"
)

func TestMarkers(t *testing.T) {
	got := Markers("Plans start at $10 [2], see [1] and again [2]. Not a marker: [x].")
	if !slices.Equal(got, []string{"[2]", "[1]"}) {
		t.Errorf("Markers = %v", got)
	}
	if Markers("no citations") != nil {
		t.Error("expected nil for text without markers")
	}
}

func TestKeepMarkers(t *testing.T) {
	known := map[string]bool{"[1]": true}
	got := KeepMarkers("a [1] b [7]", func(m string) bool { return known[m] })
	if got != "a [1] b " {
		t.Errorf("KeepMarkers = %q", got)
	}
}

func TestEscapeMarkers(t *testing.T) {
	if got := EscapeMarkers("see note [7]"); got != "see note (7)" {
		t.Errorf("EscapeMarkers = %q", got)
	}
	if got := Marker(3); got != "[3]" {
		t.Errorf("Marker = %q", got)
	}
}
