package askdex

import "github.com/kailas-cloud/askdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrConfiguration          = domain.ErrConfiguration
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrTransientProvider      = domain.ErrTransientProvider
)
