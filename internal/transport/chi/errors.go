package chi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
// body carries the message and latency; the handler fills in the code.
type errorHandler func(w http.ResponseWriter, err error, body ErrorResponse) bool

// domainErrors maps sentinels to status and code, first match wins.
var domainErrors = []struct {
	sentinel error
	status   int
	code     ErrorCode
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed},
	{domain.ErrTokenQuotaExceeded, http.StatusPaymentRequired, ErrorCodeQuotaExceeded},
	{domain.ErrGatewayUnavailable, http.StatusServiceUnavailable, ErrorCodeGatewayUnavailable},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingError},
	{domain.ErrVectorSearchFailed, http.StatusBadGateway, ErrorCodeVectorSearchError},
	{domain.ErrGenerationFailed, http.StatusBadGateway, ErrorCodeGenerationError},
	{domain.ErrPlanParse, http.StatusBadGateway, ErrorCodePlanParseFailed},
	{domain.ErrPlanValidation, http.StatusBadGateway, ErrorCodePlanValidationError},
}

func defaultErrorHandlers() []errorHandler {
	handlers := make([]errorHandler, 0, len(domainErrors))
	for _, e := range domainErrors {
		handlers = append(handlers, sentinelHandler(e.sentinel, e.status, e.code))
	}
	return handlers
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, body ErrorResponse) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		body.Code = code
		writeJSON(w, status, body)
		return true
	}
}

// safeDomainMessage keeps the full wrapped message of classified errors, so provider
// messages reach the caller verbatim. Unclassified errors are reduced to "internal error".
func safeDomainMessage(err error) string {
	for _, e := range domainErrors {
		if errors.Is(err, e.sentinel) {
			return err.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))

	latency := time.Since(start).Milliseconds()
	body := ErrorResponse{Message: safeDomainMessage(err), LatencyMs: &latency}
	for _, h := range s.errorHandlers {
		if h(w, err, body) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	body.Code = ErrorCodeInternalError
	writeJSON(w, http.StatusInternalServerError, body)
}

// planErrorStatus maps ai-plan failures: caller mistakes are 400, quota is 402,
// everything downstream is 500.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTokenQuotaExceeded):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
