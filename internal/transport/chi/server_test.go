package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	chatuc "github.com/gobahrain/gobahrain/internal/usecase/chat"
	healthuc "github.com/gobahrain/gobahrain/internal/usecase/health"
	"github.com/gobahrain/gobahrain/internal/usecase/planner"
)

// --- Mocks ---

type mockPlanner struct {
	plan      planner.PlanResult
	planErr   error
	planCalls int
	message   string
	prefs     domain.Preferences

	match      planner.MatchResult
	matchErr   error
	interests  []string
	food       []string
	matchTopK  int
	panicOnUse bool
}

func (m *mockPlanner) Plan(ctx context.Context, message string, prefs domain.Preferences) (planner.PlanResult, error) {
	if m.panicOnUse {
		panic("boom")
	}
	m.planCalls++
	m.message, m.prefs = message, prefs
	domain.UsageFromContext(ctx).AddEmbedding(12)
	domain.UsageFromContext(ctx).AddGeneration(340)
	return m.plan, m.planErr
}

func (m *mockPlanner) MatchClients(_ context.Context, interests, food []string, topK int) (planner.MatchResult, error) {
	m.interests, m.food, m.matchTopK = interests, food, topK
	return m.match, m.matchErr
}

type mockChatter struct {
	resp chatuc.Response
	err  error
	req  chatuc.Request
}

func (m *mockChatter) Reply(_ context.Context, req chatuc.Request) (chatuc.Response, error) {
	m.req = req
	return m.resp, m.err
}

type mockPlaces struct {
	set     candidate.Set
	text    string
	topK    int
	mapOnly bool
}

func (m *mockPlaces) LookupPlaces(_ context.Context, text string, topK int, requireCoordinates bool) candidate.Set {
	m.text, m.topK, m.mapOnly = text, topK, requireCoordinates
	return m.set
}

type mockCommunity struct {
	posts   []domain.Post
	reviews []domain.Review
	pois    []domain.POI
	err     error

	keyword, place string
	lat, lng, km   float64
	limit          int
}

func (m *mockCommunity) SearchPosts(_ context.Context, keyword string, limit int) ([]domain.Post, error) {
	m.keyword, m.limit = keyword, limit
	return m.posts, m.err
}

func (m *mockCommunity) ReviewsForPlace(_ context.Context, place string, limit int) ([]domain.Review, error) {
	m.place, m.limit = place, limit
	return m.reviews, m.err
}

func (m *mockCommunity) NearbyPOIs(_ context.Context, lat, lng, radiusKm float64, limit int) ([]domain.POI, error) {
	m.lat, m.lng, m.km, m.limit = lat, lng, radiusKm, limit
	return m.pois, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type fixture struct {
	planner   *mockPlanner
	chat      *mockChatter
	places    *mockPlaces
	community *mockCommunity
	health    *mockHealth
}

func newFixture() *fixture {
	return &fixture{
		planner:   &mockPlanner{},
		chat:      &mockChatter{},
		places:    &mockPlaces{},
		community: &mockCommunity{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func (f *fixture) handler(withCommunity bool) http.Handler {
	var community Community
	if withCommunity {
		community = f.community
	}
	return NewRouter(NewServer(f.planner, f.chat, f.places, community, f.health), nil, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func place(t *testing.T, id string, meta map[string]any) candidate.Record {
	t.Helper()
	r, ok := candidate.Normalize(id, 0.9, meta)
	if !ok {
		t.Fatalf("candidate %s rejected", id)
	}
	return r
}

// --- Day plan ---

func TestPlan_Success(t *testing.T) {
	f := newFixture()
	f.planner.plan = planner.PlanResult{
		DayPlan:         `[{"spot":"Bahrain Fort"}]`,
		Items:           []domain.PlanItem{{Spot: "Bahrain Fort", Time: domain.Morning, Type: domain.PlanPlace}},
		UsedPlacesCount: 1,
		Latency:         time.Second,
	}

	rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan",
		`{"message":"history day","preferences":{"food":["Cafe"],"budget":"low"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}

	got := decode[map[string]any](t, rr)
	for _, key := range []string{"day_plan", "used_places_count", "latency_ms", "items", "issues"} {
		if _, ok := got[key]; !ok {
			t.Errorf("response missing %q: %v", key, got)
		}
	}
	if issues, _ := got["issues"].([]any); issues == nil {
		t.Errorf("issues must be an empty array, got %v", got["issues"])
	}
	if f.planner.message != "history day" || f.planner.prefs.Budget != "low" {
		t.Errorf("planner got %q %+v", f.planner.message, f.planner.prefs)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "12" || rr.Header().Get("X-Generation-Tokens") != "340" {
		t.Errorf("token headers = %v", rr.Header())
	}
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  int
	}{
		{"missing message", `{"preferences":{}}`, nil, http.StatusBadRequest, 0},
		{"blank message", `{"message":"   "}`, nil, http.StatusBadRequest, 0},
		{"malformed body", `{"message":`, nil, http.StatusBadRequest, 0},
		{"generation failure", `{"message":"x"}`, fmt.Errorf("generate day plan: %w", domain.ErrGenerationFailed),
			http.StatusInternalServerError, 1},
		{"parse failure", `{"message":"x"}`, domain.ErrPlanParse, http.StatusInternalServerError, 1},
		{"vector failure", `{"message":"x"}`, domain.ErrVectorSearchFailed, http.StatusInternalServerError, 1},
		{"quota", `{"message":"x"}`, domain.ErrTokenQuotaExceeded, http.StatusPaymentRequired, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.planner.planErr = tt.err

			rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body)
			}
			body := decode[PlanErrorResponse](t, rr)
			if body.Error == "" {
				t.Error("error message is empty")
			}
			if f.planner.planCalls != tt.wantCalls {
				t.Errorf("planner calls = %d, want %d", f.planner.planCalls, tt.wantCalls)
			}
		})
	}
}

func TestPlan_ErrorKeepsProviderMessage(t *testing.T) {
	f := newFixture()
	f.planner.planErr = fmt.Errorf("generate day plan: %w: model overloaded", domain.ErrGenerationFailed)

	rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan", `{"message":"x"}`)
	if body := decode[PlanErrorResponse](t, rr); !strings.Contains(body.Error, "model overloaded") {
		t.Errorf("error = %q", body.Error)
	}
}

// --- Match clients ---

func TestMatchClients(t *testing.T) {
	f := newFixture()
	f.planner.match = planner.MatchResult{Clients: []domain.ScoredMatch{
		{ID: "c1", Score: 0.91, Metadata: map[string]any{"name": "Bahrain Fort"}},
	}}

	rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan/match-clients",
		`{"preferences":["history"],"foodCategories":["Cafe"],"topK":4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	got := decode[MatchClientsResponse](t, rr)
	if diff := cmp.Diff(f.planner.match.Clients, got.Clients); diff != "" {
		t.Errorf("clients mismatch (-want +got):\n%s", diff)
	}
	if f.planner.matchTopK != 4 || f.planner.interests[0] != "history" || f.planner.food[0] != "Cafe" {
		t.Errorf("planner got %v %v %d", f.planner.interests, f.planner.food, f.planner.matchTopK)
	}
}

func TestMatchClients_EmptyBodyFieldsAndErrors(t *testing.T) {
	f := newFixture()
	rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan/match-clients", `{}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"clients":[]`) {
		t.Errorf("empty match = %d %s", rr.Code, rr.Body)
	}

	rr = do(t, f.handler(false), http.MethodPost, "/api/ai-plan/match-clients", `{"topK":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("topK 0: status = %d", rr.Code)
	}

	f.planner.matchErr = domain.ErrEmbeddingProviderError
	rr = do(t, f.handler(false), http.MethodPost, "/api/ai-plan/match-clients", `{}`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("provider failure: status = %d", rr.Code)
	}
}

// --- Chat ---

func TestChat(t *testing.T) {
	f := newFixture()
	f.chat.resp = chatuc.Response{
		Reply: domain.ChatReply{
			Reply:   "Try Bahrain Fort.",
			Actions: []domain.Action{{Type: domain.ActionShowReviews, Place: "Bahrain Fort"}},
		},
		CandidatesCount: 7,
		Latency:         250 * time.Millisecond,
	}

	rr := do(t, f.handler(false), http.MethodPost, "/api/chat",
		`{"message":"where to go?","history":[{"role":"user","text":"hi"}],"preferences":{"vibe":"calm"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	want := ChatResponse{
		Reply:           "Try Bahrain Fort.",
		Actions:         []domain.Action{{Type: domain.ActionShowReviews, Place: "Bahrain Fort"}},
		CandidatesCount: 7,
		LatencyMs:       250,
	}
	if diff := cmp.Diff(want, decode[ChatResponse](t, rr)); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	if len(f.chat.req.History) != 1 || f.chat.req.Preferences.Vibe != "calm" {
		t.Errorf("chat request = %+v", f.chat.req)
	}
}

func TestChat_ActionsNeverNull(t *testing.T) {
	f := newFixture()
	f.chat.resp = chatuc.Response{Reply: domain.ChatReply{Reply: "Hello"}}

	rr := do(t, f.handler(false), http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if !strings.Contains(rr.Body.String(), `"actions":[]`) {
		t.Errorf("body = %s", rr.Body)
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{fmt.Errorf("message is required: %w", domain.ErrInvalidRequest), http.StatusBadRequest, ErrorCodeValidationFailed},
		{domain.ErrTokenQuotaExceeded, http.StatusPaymentRequired, ErrorCodeQuotaExceeded},
		{fmt.Errorf("generate reply: %w", domain.ErrGenerationFailed), http.StatusBadGateway, ErrorCodeGenerationError},
		{errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantCode), func(t *testing.T) {
			f := newFixture()
			f.chat.err = tt.err

			rr := do(t, f.handler(false), http.MethodPost, "/api/chat", `{"message":"hi"}`)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
		})
	}
}

func TestChat_InternalErrorHidesDetails(t *testing.T) {
	f := newFixture()
	f.chat.err = errors.New("dial tcp 10.0.0.3:443: secret")

	rr := do(t, f.handler(false), http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if strings.Contains(rr.Body.String(), "10.0.0.3") {
		t.Errorf("internal detail leaked: %s", rr.Body)
	}
}

func TestChat_ErrorKeepsProviderMessage(t *testing.T) {
	f := newFixture()
	f.chat.err = fmt.Errorf("generate reply: generation API error 429: Rate limit reached for gpt-4o-mini: %w",
		domain.ErrGenerationFailed)

	rr := do(t, f.handler(false), http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[ErrorResponse](t, rr)
	if got.Code != ErrorCodeGenerationError || !strings.Contains(got.Message, "Rate limit reached for gpt-4o-mini") {
		t.Errorf("error body = %+v", got)
	}
	if got.LatencyMs == nil {
		t.Error("latency_ms missing from error body")
	}
}

// --- Places ---

func TestPlaces(t *testing.T) {
	f := newFixture()
	f.places.set = candidate.Set{
		Candidates: []candidate.Record{
			place(t, "p1", map[string]any{"name": "Bahrain Fort", "category": "history", "lat": 26.23, "lng": 50.52}),
			place(t, "p2", map[string]any{"name": "Souq"}),
		},
		Fallback: true,
	}

	rr := do(t, f.handler(false), http.MethodGet, "/api/places?q=forts&topK=3&ar=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if f.places.text != "forts" || f.places.topK != 3 || !f.places.mapOnly {
		t.Errorf("lookup got %q %d %v", f.places.text, f.places.topK, f.places.mapOnly)
	}

	got := decode[PlacesResponse](t, rr)
	if !got.Fallback || len(got.Places) != 2 {
		t.Fatalf("response = %+v", got)
	}
	if got.Places[0].Lat == nil || *got.Places[0].Lat != 26.23 || got.Places[0].Category != "history" {
		t.Errorf("place 0 = %+v", got.Places[0])
	}
	if got.Places[1].Lat != nil {
		t.Errorf("place without coordinates rendered lat %v", *got.Places[1].Lat)
	}
}

func TestPlaces_Defaults(t *testing.T) {
	f := newFixture()
	rr := do(t, f.handler(false), http.MethodGet, "/api/places", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"places":[]`) {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if f.places.topK != 0 || f.places.mapOnly {
		t.Errorf("defaults: topK %d ar %v", f.places.topK, f.places.mapOnly)
	}
}

func TestPlaces_BadParams(t *testing.T) {
	for _, target := range []string{"/api/places?topK=abc", "/api/places?topK=0", "/api/places?topK=101", "/api/places?ar=maybe"} {
		rr := do(t, newFixture().handler(false), http.MethodGet, target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rr.Code)
		}
	}
}

// --- Community ---

func TestCommunity_UnavailableWithoutGateway(t *testing.T) {
	h := newFixture().handler(false)
	for _, target := range []string{"/api/posts?q=karak", "/api/reviews?place=Fort", "/api/pois/nearby?lat=26.2&lng=50.5"} {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d", target, rr.Code)
		}
		if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeGatewayUnavailable {
			t.Errorf("%s: code = %s", target, got.Code)
		}
	}
}

func TestPosts(t *testing.T) {
	f := newFixture()
	f.community.posts = []domain.Post{{ID: "1", Caption: "Karak at sunset"}}

	rr := do(t, f.handler(true), http.MethodGet, "/api/posts?q=karak&limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if f.community.keyword != "karak" || f.community.limit != 5 {
		t.Errorf("gateway got %q %d", f.community.keyword, f.community.limit)
	}
	if got := decode[PostsResponse](t, rr); len(got.Items) != 1 || got.Items[0].Caption != "Karak at sunset" {
		t.Errorf("items = %+v", got.Items)
	}

	if rr := do(t, f.handler(true), http.MethodGet, "/api/posts", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d", rr.Code)
	}
}

func TestReviews(t *testing.T) {
	f := newFixture()
	rr := do(t, f.handler(true), http.MethodGet, "/api/reviews?place=Bahrain%20Fort", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if f.community.place != "Bahrain Fort" || f.community.limit != 0 {
		t.Errorf("gateway got %q %d", f.community.place, f.community.limit)
	}
}

func TestNearbyPOIs(t *testing.T) {
	f := newFixture()
	f.community.pois = []domain.POI{{ID: "1", Name: "Bab Al Bahrain", DistanceKm: 0.4}}

	rr := do(t, f.handler(true), http.MethodGet, "/api/pois/nearby?lat=26.23&lng=50.57", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if f.community.lat != 26.23 || f.community.lng != 50.57 || f.community.km != defaultRadiusKm {
		t.Errorf("gateway got %v %v %v", f.community.lat, f.community.lng, f.community.km)
	}

	rr = do(t, f.handler(true), http.MethodGet, "/api/pois/nearby?lat=26.23&lng=50.57&radius_km=2.5&limit=3", "")
	if rr.Code != http.StatusOK || f.community.km != 2.5 || f.community.limit != 3 {
		t.Errorf("explicit radius: %d %v %d", rr.Code, f.community.km, f.community.limit)
	}

	if rr := do(t, f.handler(true), http.MethodGet, "/api/pois/nearby?lng=50.57", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing lat: status = %d", rr.Code)
	}

	f.community.err = fmt.Errorf("radius_km must be in (0, 50]: %w", domain.ErrInvalidRequest)
	if rr := do(t, f.handler(true), http.MethodGet, "/api/pois/nearby?lat=1&lng=1&radius_km=90", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid radius: status = %d", rr.Code)
	}
}

// --- Health, routing, middleware ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status     healthuc.Status
		wantStatus int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			f.health.report = healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentVector: healthuc.CheckOK},
			}

			rr := do(t, f.handler(false), http.MethodGet, "/health", "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			got := decode[HealthResponse](t, rr)
			if got.Status != string(tt.status) || got.Checks[healthuc.ComponentVector] != "ok" || got.Version == "" {
				t.Errorf("health = %+v", got)
			}
		})
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	rr := do(t, newFixture().handler(false), http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound || rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("status = %d content-type = %q", rr.Code, rr.Header().Get("Content-Type"))
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	f := newFixture()
	f.planner.panicOnUse = true

	rr := do(t, f.handler(false), http.MethodPost, "/api/ai-plan", `{"message":"x"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeInternalError {
		t.Errorf("code = %s", got.Code)
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	rr := do(t, newFixture().handler(false), http.MethodGet, "/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}
