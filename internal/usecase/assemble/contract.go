package assemble

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// LLM condenses over-budget contexts.
type LLM interface {
	ChatCall(ctx context.Context, call domain.Call) (string, error)
}

// TokenCounter estimates the token count of a text.
type TokenCounter interface {
	Count(text string) int
}
