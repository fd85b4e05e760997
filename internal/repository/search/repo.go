// Package search adapts the hybrid index to passage candidates.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/candidate"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
	"github.com/kailas-cloud/askdex/internal/domain/search/filter"
)

// Index field names of a passage hash.
const (
	FieldOriginalText   = "original_text"
	FieldDocumentID     = "document_id"
	FieldCategory       = "category"
	FieldTechnicalLevel = "technical_level"
	FieldEntities       = "entities"
	FieldQuality        = "content_quality"
	FieldHasVisual      = "has_visual"
	FieldVisualTypes    = "visual_types"
	FieldSource         = "source"
	FieldTitle          = "title"
)

// Defaults for Config.
const (
	DefaultIndexName = domain.KeyPrefix + "passages:idx"
	DefaultKeyPrefix = domain.KeyPrefix + "passage:"
)

var returnFields = []string{
	db.TextField,
	FieldOriginalText,
	FieldDocumentID,
	FieldCategory,
	FieldTechnicalLevel,
	FieldQuality,
	FieldHasVisual,
	FieldVisualTypes,
	FieldSource,
	FieldTitle,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Config names the passage index.
type Config struct {
	IndexName string
	KeyPrefix string
}

// Repo runs vector and keyword lookups over the passage index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Repo{store: s, indexName: cfg.IndexName, keyPrefix: cfg.KeyPrefix}
}

// VectorSearch returns up to limit passages nearest to vector with cosine
// similarity at or above threshold. VectorScore is in [0,1].
func (r *Repo) VectorSearch(
	ctx context.Context, vector []float32, f retrieval.Filter, limit int, threshold float64,
) ([]candidate.Candidate, error) {
	expr, err := Expression(f)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Filters:      expr,
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
		MinScore:     threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search %s: %w", r.indexName, err)
	}

	out := r.toCandidates(sr)
	for i := range out {
		out[i].VectorScore = sr.Entries[i].Score
	}
	return out, nil
}

// KeywordSearch returns up to limit passages ranked by BM25 against text.
// KeywordScore is the store's rank statistic, unbounded above.
func (r *Repo) KeywordSearch(
	ctx context.Context, text string, f retrieval.Filter, limit int,
) ([]candidate.Candidate, error) {
	expr, err := Expression(f)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		Query:        text,
		Filters:      expr,
		TopK:         limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search %s: %w", r.indexName, err)
	}

	out := r.toCandidates(sr)
	for i := range out {
		out[i].KeywordScore = sr.Entries[i].Score
	}
	return out, nil
}

// Expression translates a retrieval filter into the index pre-filter.
// Strict categories are required; otherwise any listed category matches.
func Expression(f retrieval.Filter) (filter.Expression, error) {
	var must, should []filter.Condition

	if len(f.Categories) > 0 {
		values := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			values[i] = string(c)
		}
		cond, err := filter.NewMatchAny(FieldCategory, values...)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("category filter: %w", err)
		}
		if f.StrictCategories {
			must = append(must, cond)
		} else {
			should = append(should, cond)
		}
	}

	if f.TechnicalLevelMin > 0 || f.TechnicalLevelMax > 0 {
		lo, hi := float64(f.TechnicalLevelMin), float64(f.TechnicalLevelMax)
		if f.TechnicalLevelMax == 0 {
			hi = analysis.MaxTechnicalLevel
		}
		cond, err := filter.NewRange(FieldTechnicalLevel, filter.Between(lo, hi))
		if err != nil {
			return filter.Expression{}, fmt.Errorf("technical level filter: %w", err)
		}
		must = append(must, cond)
	}

	if len(f.Entities) > 0 {
		cond, err := filter.NewMatchAny(FieldEntities, f.Entities...)
		if err == nil {
			must = append(must, cond)
		}
	}

	expr, err := filter.NewExpression(must, should, nil)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build filter: %w", err)
	}
	if len(f.Keywords) > 0 {
		if expr, err = expr.WithTerms(f.Keywords...); err != nil {
			return filter.Expression{}, fmt.Errorf("keyword terms: %w", err)
		}
	}
	return expr, nil
}

func (r *Repo) toCandidates(sr *db.SearchResult) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]candidate.Candidate, len(sr.Entries))
	for i, entry := range sr.Entries {
		out[i] = parseEntry(strings.TrimPrefix(entry.Key, r.keyPrefix), entry.Fields)
	}
	return out
}

// parseEntry maps flat hash fields onto a candidate. Unparseable numerics
// keep their zero value.
func parseEntry(id string, fields map[string]string) candidate.Candidate {
	c := candidate.Candidate{
		ID:           id,
		DocumentID:   fields[FieldDocumentID],
		Text:         fields[db.TextField],
		OriginalText: fields[FieldOriginalText],
		Metadata: candidate.Metadata{
			Category: analysis.General,
			Source:   fields[FieldSource],
			Title:    fields[FieldTitle],
		},
	}
	if cat, ok := analysis.ParseCategory(fields[FieldCategory]); ok {
		c.Metadata.Category = cat
	}
	if v, err := strconv.Atoi(fields[FieldTechnicalLevel]); err == nil {
		c.Metadata.TechnicalLevel = v
	}
	if v, err := strconv.ParseFloat(fields[FieldQuality], 64); err == nil {
		c.Metadata.ContentQualityScore = v
	}
	if v, err := strconv.ParseBool(fields[FieldHasVisual]); err == nil {
		c.Metadata.HasVisual = v
	}
	for _, t := range strings.Split(fields[FieldVisualTypes], ",") {
		if vt, ok := analysis.ParseVisualType(t); ok {
			c.Metadata.VisualTypes = append(c.Metadata.VisualTypes, vt)
		}
	}
	return c
}
