package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kailas-cloud/askdex/internal/domain"
)

const semanticSystemPrompt = `You expand search queries for a company knowledge base.
Suggest short alternative phrasings, synonyms and closely related concepts that
would help find relevant passages. Never repeat words already in the query.`

var termsSchema = domain.MustSchema(&jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"terms": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
	},
	Required:             []string{"terms"},
	AdditionalProperties: false,
})

type termsPayload struct {
	Terms []string `json:"terms"`
}

// semanticTerms asks the LLM for up to n phrases. A failed structured call
// falls back to a plain-text prompt parsed line by line.
func (s *Expander) semanticTerms(ctx context.Context, text string, n int) ([]string, error) {
	user := fmt.Sprintf("Query: %s\nReturn up to %d expansion terms.", text, n)
	call := domain.Call{
		Operation:   Operation,
		Model:       s.cfg.Model,
		System:      semanticSystemPrompt,
		User:        user,
		Schema:      termsSchema,
		SchemaName:  "expansion_terms",
		Temperature: 0.3,
		MaxTokens:   200,
	}

	raw, err := s.llm.StructuredCall(ctx, call)
	if err == nil {
		var p termsPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			return p.Terms, nil
		}
		err = domain.NewMalformed(Operation, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	call.Operation = Operation + "_text"
	call.Schema = nil
	call.User = user + "\nOne term per line, no numbering, no commentary."
	out, chatErr := s.llm.ChatCall(ctx, call)
	if chatErr != nil {
		return nil, fmt.Errorf("structured: %w; plain text: %w", err, chatErr)
	}
	return parseLines(out), nil
}

// parseLines splits plain-text output into terms, stripping list markers.
func parseLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•·> \t")
		line = stripNumbering(line)
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stripNumbering removes "1." or "1)" prefixes.
func stripNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
