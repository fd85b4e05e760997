// Package expansion holds the result of query expansion.
package expansion

import "strings"

// Type records which strategies contributed terms.
type Type string

// Expansion types.
const (
	Semantic Type = "semantic"
	Keyword  Type = "keyword"
	Hybrid   Type = "hybrid"
	None     Type = "none"
)

// DefaultMaxTerms is the default upper bound of added terms.
const DefaultMaxTerms = 5

// Expanded is the original query plus appended terms, order preserved.
type Expanded struct {
	Original   string   `json:"original"`
	Expanded   string   `json:"expanded"`
	AddedTerms []string `json:"added_terms"`
	Type       Type     `json:"type"`
}

// Unchanged returns the identity expansion of query.
func Unchanged(query string) Expanded {
	return Expanded{Original: query, Expanded: query, AddedTerms: []string{}, Type: None}
}

// New appends terms to query in order.
func New(query string, terms []string, t Type) Expanded {
	if len(terms) == 0 {
		return Unchanged(query)
	}
	return Expanded{
		Original:   query,
		Expanded:   query + " " + strings.Join(terms, " "),
		AddedTerms: terms,
		Type:       t,
	}
}
