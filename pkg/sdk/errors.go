package gobahrain

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrTokenQuotaExceeded     = domain.ErrTokenQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorSearchFailed     = domain.ErrVectorSearchFailed
	ErrGenerationFailed       = domain.ErrGenerationFailed
	ErrGatewayUnavailable     = domain.ErrGatewayUnavailable

	// ErrUnauthorized signals a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServer signals any other server-side failure.
	ErrServer = errors.New("server error")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gobahrain: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("gobahrain: %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the response onto a sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "embedding_provider_error":
		return ErrEmbeddingProviderError
	case "vector_search_error":
		return ErrVectorSearchFailed
	case "generation_error":
		return ErrGenerationFailed
	case "gateway_unavailable":
		return ErrGatewayUnavailable
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusPaymentRequired:
		return ErrTokenQuotaExceeded
	case http.StatusServiceUnavailable:
		return ErrGatewayUnavailable
	default:
		return ErrServer
	}
}
