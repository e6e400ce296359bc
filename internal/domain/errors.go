package domain

import "errors"

// KeyPrefix namespaces every key this service writes to the key-value store.
const KeyPrefix = "gobahrain:"

var (
	// ErrInvalidRequest signals a request that failed input validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConfig signals missing or malformed configuration.
	ErrConfig = errors.New("configuration error")
	// ErrTokenQuotaExceeded signals an exhausted token budget.
	ErrTokenQuotaExceeded = errors.New("token quota exceeded")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorSearchFailed signals a vector index failure (non-success status or bad payload).
	ErrVectorSearchFailed = errors.New("vector search failed")
	// ErrGenerationFailed signals a chat completion failure.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrPlanParse signals that no day plan array could be extracted from the model output.
	ErrPlanParse = errors.New("plan parse failed")
	// ErrPlanValidation signals that strict validation rejected every plan item.
	ErrPlanValidation = errors.New("plan validation failed")

	// ErrGatewayUnavailable signals that the relational gateway is not configured.
	ErrGatewayUnavailable = errors.New("relational gateway unavailable")
)
