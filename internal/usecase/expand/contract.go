package expand

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// LLM generates semantic variants. ChatCall serves the plain-text fallback.
type LLM interface {
	StructuredCall(ctx context.Context, call domain.Call) (json.RawMessage, error)
	ChatCall(ctx context.Context, call domain.Call) (string, error)
}
