package answer

import (
	"fmt"
	"regexp"
)

// markerPattern finds citation markers such as [3].
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Marker renders the citation marker of the n-th context entry (1-based).
func Marker(n int) string {
	return fmt.Sprintf("[%d]", n)
}

// Markers returns the distinct markers referenced in text, in order of
// first appearance.
func Markers(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range markerPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// KeepMarkers removes every marker of text for which keep returns false.
func KeepMarkers(text string, keep func(marker string) bool) string {
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		if keep(m) {
			return m
		}
		return ""
	})
}

// EscapeMarkers rewrites bracketed numbers in passage text as (n) so they
// cannot be read as citations.
func EscapeMarkers(text string) string {
	return markerPattern.ReplaceAllString(text, "($1)")
}
