package answer

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// LLM generates the answer text.
type LLM interface {
	ChatCall(ctx context.Context, call domain.Call) (string, error)
}
