// Package query holds the immutable caller query and its filters.
package query

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxTextLength bounds the raw query text in bytes.
const MaxTextLength = 4000

// Role of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role Role
	Text string
}

// LevelRange is an inclusive technical-level window.
type LevelRange struct {
	Min int
	Max int
}

// Filters are caller-provided retrieval restrictions.
// Zero value means "no restriction".
type Filters struct {
	PrimaryCategory     string
	SecondaryCategories []string
	TechnicalLevel      *LevelRange
	RequiredEntities    []string
	Keywords            []string
	// Strict turns the category preference into a hard restriction.
	Strict bool
}

// IsEmpty reports whether no restriction is set.
func (f Filters) IsEmpty() bool {
	return f.PrimaryCategory == "" &&
		len(f.SecondaryCategories) == 0 &&
		f.TechnicalLevel == nil &&
		len(f.RequiredEntities) == 0 &&
		len(f.Keywords) == 0
}

// Query is the caller's question. It is never mutated after New.
type Query struct {
	text    string
	history []Message
	filters Filters
}

// New validates and creates a Query.
func New(text string, history []Message, filters Filters) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text is required")
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text exceeds %d bytes", MaxTextLength)
	}
	if r := filters.TechnicalLevel; r != nil && r.Min > r.Max {
		return Query{}, fmt.Errorf("technical level range min %d > max %d", r.Min, r.Max)
	}
	h := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return Query{}, fmt.Errorf("unknown history role %q", m.Role)
		}
		h = append(h, m)
	}
	return Query{text: text, history: h, filters: filters}, nil
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// History returns a copy of the conversation history, oldest first.
func (q Query) History() []Message {
	out := make([]Message, len(q.history))
	copy(out, q.history)
	return out
}

// Filters returns the caller filters.
func (q Query) Filters() Filters { return q.filters }

// Normalized returns the cache key form of the query text.
func (q Query) Normalized() string { return Normalize(q.text) }

// Normalize case-folds s and collapses every whitespace run into one space.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
