package analyze

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// LLM issues the structured judge call.
type LLM interface {
	StructuredCall(ctx context.Context, call domain.Call) (json.RawMessage, error)
}
