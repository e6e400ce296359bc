package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	"github.com/gobahrain/gobahrain/internal/logger"
	chatuc "github.com/gobahrain/gobahrain/internal/usecase/chat"
	healthuc "github.com/gobahrain/gobahrain/internal/usecase/health"
	"github.com/gobahrain/gobahrain/internal/usecase/planner"
	"github.com/gobahrain/gobahrain/internal/version"
)

const (
	maxTopK          = 100
	defaultRadiusKm  = 5.0
	maxRequestBodyMB = 1
)

// Server serves the recommendation API.
type Server struct {
	planner       Planner
	chat          Chatter
	places        PlaceLister
	community     Community
	health        HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. community may be nil when no relational backend is configured.
func NewServer(
	planner Planner,
	chat Chatter,
	places PlaceLister,
	community Community,
	health HealthChecker,
) *Server {
	return &Server{
		planner:       planner,
		chat:          chat,
		places:        places,
		community:     community,
		health:        health,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Plan handles POST /api/ai-plan.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PlanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writePlanError(w, http.StatusBadRequest, "Invalid request body: "+err.Error(), start)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writePlanError(w, http.StatusBadRequest, "message is required", start)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.planner.Plan(ctx, req.Message, preferencesOrZero(req.Preferences))
	setTokenHeaders(w, usage)
	if err != nil {
		logger.FromContext(ctx).Warn("day plan failed", zap.Error(err))
		writePlanError(w, planErrorStatus(err), err.Error(), start)
		return
	}

	items := res.Items
	if items == nil {
		items = []domain.PlanItem{}
	}
	issues := res.Issues
	if issues == nil {
		issues = []planner.Issue{}
	}
	writeJSON(w, http.StatusOK, PlanResponse{
		DayPlan:         res.DayPlan,
		UsedPlacesCount: res.UsedPlacesCount,
		LatencyMs:       time.Since(start).Milliseconds(),
		Items:           items,
		Issues:          issues,
	})
}

// MatchClients handles POST /api/ai-plan/match-clients.
func (s *Server) MatchClients(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req MatchClientsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writePlanError(w, http.StatusBadRequest, "Invalid request body: "+err.Error(), start)
		return
	}
	topK := 0
	if req.TopK != nil {
		if *req.TopK < 1 || *req.TopK > maxTopK {
			writePlanError(w, http.StatusBadRequest, fmt.Sprintf("topK must be between 1 and %d", maxTopK), start)
			return
		}
		topK = *req.TopK
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.planner.MatchClients(ctx, req.Preferences, req.FoodCategories, topK)
	setTokenHeaders(w, usage)
	if err != nil {
		logger.FromContext(ctx).Warn("client match failed", zap.Error(err))
		writePlanError(w, planErrorStatus(err), err.Error(), start)
		return
	}

	clients := res.Clients
	if clients == nil {
		clients = []domain.ScoredMatch{}
	}
	writeJSON(w, http.StatusOK, MatchClientsResponse{
		Clients:   clients,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.chat.Reply(ctx, chatuc.Request{
		Message:     req.Message,
		History:     req.History,
		Preferences: preferencesOrZero(req.Preferences),
	})
	setTokenHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err, start)
		return
	}

	actions := res.Reply.Actions
	if actions == nil {
		actions = []domain.Action{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:           res.Reply.Reply,
		Actions:         actions,
		CandidatesCount: res.CandidatesCount,
		LatencyMs:       res.Latency.Milliseconds(),
	})
}

// Places handles GET /api/places.
func (s *Server) Places(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var (
		q    string
		topK *int
		ar   bool
	)
	query := r.URL.Query()
	if err := bindQuery(query, "q", false, &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(query, "topK", false, &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(query, "ar", false, &ar); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	limit := 0
	if topK != nil {
		if *topK < 1 || *topK > maxTopK {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				fmt.Sprintf("topK must be between 1 and %d", maxTopK))
			return
		}
		limit = *topK
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	set := s.places.LookupPlaces(ctx, q, limit, ar)
	setTokenHeaders(w, usage)

	places := make([]Place, 0, set.Len())
	for _, c := range set.Candidates {
		places = append(places, placeFromCandidate(c))
	}
	writeJSON(w, http.StatusOK, PlacesResponse{
		Places:    places,
		Fallback:  set.Fallback,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

// Posts handles GET /api/posts.
func (s *Server) Posts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.community == nil {
		s.handleDomainError(w, r, domain.ErrGatewayUnavailable, start)
		return
	}

	var (
		q     string
		limit int
	)
	query := r.URL.Query()
	if err := bindQuery(query, "q", true, &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(query, "limit", false, &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	posts, err := s.community.SearchPosts(r.Context(), q, limit)
	if err != nil {
		s.handleDomainError(w, r, err, start)
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Items: orEmpty(posts)})
}

// Reviews handles GET /api/reviews.
func (s *Server) Reviews(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.community == nil {
		s.handleDomainError(w, r, domain.ErrGatewayUnavailable, start)
		return
	}

	var (
		place string
		limit int
	)
	query := r.URL.Query()
	if err := bindQuery(query, "place", true, &place); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(query, "limit", false, &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	reviews, err := s.community.ReviewsForPlace(r.Context(), place, limit)
	if err != nil {
		s.handleDomainError(w, r, err, start)
		return
	}
	writeJSON(w, http.StatusOK, ReviewsResponse{Items: orEmpty(reviews)})
}

// NearbyPOIs handles GET /api/pois/nearby.
func (s *Server) NearbyPOIs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.community == nil {
		s.handleDomainError(w, r, domain.ErrGatewayUnavailable, start)
		return
	}

	var (
		lat, lng float64
		radius   *float64
		limit    int
	)
	query := r.URL.Query()
	for _, p := range []struct {
		name     string
		required bool
		dest     any
	}{
		{"lat", true, &lat},
		{"lng", true, &lng},
		{"radius_km", false, &radius},
		{"limit", false, &limit},
	} {
		if err := bindQuery(query, p.name, p.required, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
			return
		}
	}

	radiusKm := defaultRadiusKm
	if radius != nil {
		radiusKm = *radius
	}

	pois, err := s.community.NearbyPOIs(r.Context(), lat, lng, radiusKm, limit)
	if err != nil {
		s.handleDomainError(w, r, err, start)
		return
	}
	writeJSON(w, http.StatusOK, POIsResponse{Items: orEmpty(pois)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyMB<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func bindQuery(query url.Values, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, query, dest); err != nil {
		return fmt.Errorf("invalid query parameter %s: %w", name, err)
	}
	return nil
}

func preferencesOrZero(p *domain.Preferences) domain.Preferences {
	if p == nil {
		return domain.Preferences{}
	}
	return *p
}

func placeFromCandidate(c candidate.Record) Place {
	p := Place{
		ID:          c.ID(),
		Name:        c.Name(),
		Kind:        string(c.Kind()),
		Category:    c.Category(),
		Description: c.Description(),
		Location:    c.Location(),
		Score:       c.Score(),
	}
	if coords, ok := c.Coordinates(); ok {
		lat, lng := coords.Lat, coords.Lng
		p.Lat, p.Lng = &lat, &lng
	}
	return p
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func setTokenHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	embedding, generation := usage.Totals()
	if embedding > 0 {
		w.Header().Set(domain.HeaderEmbeddingTokens, strconv.Itoa(embedding))
	}
	if generation > 0 {
		w.Header().Set(domain.HeaderGenerationTokens, strconv.Itoa(generation))
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

func writePlanError(w http.ResponseWriter, status int, message string, start time.Time) {
	writeJSON(w, status, PlanErrorResponse{
		Error:     message,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}
