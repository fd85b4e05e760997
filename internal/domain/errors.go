package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientProvider signals a timeout, rate limit or 5xx from an external provider.
	ErrTransientProvider = errors.New("transient provider error")
	// ErrMalformedResponse signals a provider payload that failed schema validation.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrEmptyResult signals that no candidate survived retrieval and filtering.
	ErrEmptyResult = errors.New("empty result")
	// ErrConfiguration signals a missing required parameter. Never defaulted.
	ErrConfiguration = errors.New("configuration error")
	// ErrVectorBranchFailed signals that the vector lookup of a fusion failed.
	ErrVectorBranchFailed = errors.New("vector branch failed")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
	// ErrInvalidQuery signals an empty or oversized query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ProviderError carries the operation that failed together with its kind
// (ErrTransientProvider or ErrMalformedResponse).
type ProviderError struct {
	Op   string
	Kind error
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTransient wraps err as a transient provider failure of op.
func NewTransient(op string, err error) error {
	return &ProviderError{Op: op, Kind: ErrTransientProvider, Err: err}
}

// NewMalformed wraps err as a malformed response of op.
func NewMalformed(op string, err error) error {
	return &ProviderError{Op: op, Kind: ErrMalformedResponse, Err: err}
}

// IsTransient reports whether err is a transient provider failure.
func IsTransient(err error) bool { return errors.Is(err, ErrTransientProvider) }

// IsMalformed reports whether err is a malformed provider response.
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedResponse) }
