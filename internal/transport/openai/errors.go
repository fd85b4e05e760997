package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/resilience"
)

// statusCode extracts the HTTP status of an API failure, 0 when absent.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isTransient reports failures worth a second attempt elsewhere:
// timeouts, rate limits, 5xx and network errors.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || resilience.IsCircuitOpen(err) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return isRetryableStatus(code)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify feeds the breaker. Caller cancellation is neither retried nor
// counted against the provider.
func classify(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	if domain.IsMalformed(err) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	if code := statusCode(err); code != 0 && !isRetryableStatus(code) {
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{Retryable: isTransient(err), RecordFailure: true}
}

// wrapCallError maps a provider failure onto the domain taxonomy.
func wrapCallError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case domain.IsMalformed(err):
		return err
	case statusCode(err) == http.StatusTooManyRequests:
		return domain.NewTransient(op, errors.Join(domain.ErrRateLimited, describe(err)))
	case isTransient(err):
		return domain.NewTransient(op, describe(err))
	default:
		return fmt.Errorf("%s: %w", op, describe(err))
	}
}

// describe extracts a human-readable error from the API response.
func describe(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("API error %d: %s: %w", reqErr.HTTPStatusCode, detail, err)
		}
		return fmt.Errorf("API error %d: %w", reqErr.HTTPStatusCode, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	return err
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
