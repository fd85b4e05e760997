package fusion

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
)

// Repository defines the storage contract for the two retrieval branches.
type Repository interface {
	VectorSearch(
		ctx context.Context, vector []float32, f retrieval.Filter, limit int, threshold float64,
	) ([]candidate.Candidate, error)

	KeywordSearch(
		ctx context.Context, text string, f retrieval.Filter, limit int,
	) ([]candidate.Candidate, error)
}
