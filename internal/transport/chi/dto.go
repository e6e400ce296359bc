package chi

import (
	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/usecase/planner"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeQuotaExceeded       ErrorCode = "token_quota_exceeded"
	ErrorCodeEmbeddingError      ErrorCode = "embedding_provider_error"
	ErrorCodeVectorSearchError   ErrorCode = "vector_search_error"
	ErrorCodeGenerationError     ErrorCode = "generation_error"
	ErrorCodeGatewayUnavailable  ErrorCode = "gateway_unavailable"
	ErrorCodeInternalError       ErrorCode = "internal_error"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed    ErrorCode = "method_not_allowed"
	ErrorCodePlanParseFailed     ErrorCode = "plan_parse_failed"
	ErrorCodePlanValidationError ErrorCode = "plan_validation_failed"
)

// ErrorResponse is the error body of every endpoint except the ai-plan pair.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// LatencyMs is set on failures of calls that reached the use cases.
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}

// PlanErrorResponse is the error body of the ai-plan endpoints.
type PlanErrorResponse struct {
	Error     string `json:"error"`
	LatencyMs int64  `json:"latency_ms"`
}

// PlanRequest is the body of POST /api/ai-plan.
type PlanRequest struct {
	Message     string              `json:"message"`
	Preferences *domain.Preferences `json:"preferences,omitempty"`
}

// PlanResponse is the body of a successful POST /api/ai-plan.
type PlanResponse struct {
	DayPlan         string            `json:"day_plan"`
	UsedPlacesCount int               `json:"used_places_count"`
	LatencyMs       int64             `json:"latency_ms"`
	Items           []domain.PlanItem `json:"items"`
	Issues          []planner.Issue   `json:"issues"`
}

// MatchClientsRequest is the body of POST /api/ai-plan/match-clients.
type MatchClientsRequest struct {
	Preferences    []string `json:"preferences,omitempty"`
	FoodCategories []string `json:"foodCategories,omitempty"`
	TopK           *int     `json:"topK,omitempty"`
}

// MatchClientsResponse lists raw client matches.
type MatchClientsResponse struct {
	Clients   []domain.ScoredMatch `json:"clients"`
	LatencyMs int64                `json:"latency_ms"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message     string              `json:"message"`
	History     []domain.ChatTurn   `json:"history,omitempty"`
	Preferences *domain.Preferences `json:"preferences,omitempty"`
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Reply           string          `json:"reply"`
	Actions         []domain.Action `json:"actions"`
	CandidatesCount int             `json:"candidates_count"`
	LatencyMs       int64           `json:"latency_ms"`
}

// Place is one entry of GET /api/places.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Score       float64  `json:"score"`
}

// PlacesResponse is the body of GET /api/places.
type PlacesResponse struct {
	Places    []Place `json:"places"`
	Fallback  bool    `json:"fallback"`
	LatencyMs int64   `json:"latency_ms"`
}

// PostsResponse is the body of GET /api/posts.
type PostsResponse struct {
	Items []domain.Post `json:"items"`
}

// ReviewsResponse is the body of GET /api/reviews.
type ReviewsResponse struct {
	Items []domain.Review `json:"items"`
}

// POIsResponse is the body of GET /api/pois/nearby.
type POIsResponse struct {
	Items []domain.POI `json:"items"`
}

// HealthResponse reports per-component health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}
