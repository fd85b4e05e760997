package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/logger"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest     ErrorCode = "bad_request"
	CodeUnauthorized   ErrorCode = "unauthorized"
	CodeInvalidQuery   ErrorCode = "invalid_query"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeNotConfigured  ErrorCode = "not_configured"
	CodeProviderError  ErrorCode = "provider_error"
	CodeTimeout        ErrorCode = "timeout"
	CodeClientGone     ErrorCode = "client_closed_request"
	CodeInternalError  ErrorCode = "internal_error"
	CodeNotImplemented ErrorCode = "not_implemented"
)

// statusClientClosedRequest is the non-standard status logged when the
// caller went away before the answer was ready.
const statusClientClosedRequest = 499

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrConfiguration, http.StatusServiceUnavailable, CodeNotConfigured),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrKeywordSearchNotSupported, http.StatusNotImplemented, CodeNotImplemented),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
		sentinelHandler(context.Canceled, statusClientClosedRequest, CodeClientGone),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the outermost sentinel text for known errors so
// provider details never reach the caller.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		// Validation messages are written for callers.
		msg := err.Error()
		if _, rest, ok := strings.Cut(msg, domain.ErrInvalidQuery.Error()+": "); ok {
			return rest
		}
		return domain.ErrInvalidQuery.Error()
	case errors.Is(err, domain.ErrConfiguration):
		return "service is not fully configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	for _, sentinel := range []error{
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrKeywordSearchNotSupported,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
