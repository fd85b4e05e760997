package domain

import (
	"context"
	"encoding/json"
)

// Call is a single judge or generator invocation.
// Model is optional; the provider default is used when empty.
type Call struct {
	Operation string
	Model     string
	System    string
	User      string
	// Schema is the JSON schema the structured output must satisfy.
	Schema      json.Marshaler
	SchemaName  string
	Temperature float32
	MaxTokens   int
}

// LLM is the judge/generator provider contract. Implementations enforce a
// provider-level timeout and a maximum input size.
//
// StructuredCall returns the raw JSON payload; callers validate it against
// their own closed types. ChatCall returns plain text.
type LLM interface {
	StructuredCall(ctx context.Context, call Call) (json.RawMessage, error)
	ChatCall(ctx context.Context, call Call) (string, error)
}

// MustSchema renders a schema definition once so it can be shared by
// concurrent calls. It panics on a definition that cannot be marshaled.
func MustSchema(def json.Marshaler) json.RawMessage {
	b, err := def.MarshalJSON()
	if err != nil {
		panic("render schema: " + err.Error())
	}
	return b
}
