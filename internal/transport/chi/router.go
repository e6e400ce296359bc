package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/metrics"
)

// NewRouter mounts the API routes behind the standard middleware chain.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gochi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(apiKeys, healthPath, metricsPath))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Get(healthPath, s.HealthCheck)
	r.Get(metricsPath, s.Metrics)

	r.Route("/api", func(r gochi.Router) {
		r.Post("/ai-plan", s.Plan)
		r.Post("/ai-plan/match-clients", s.MatchClients)
		r.Post("/chat", s.Chat)
		r.Get("/places", s.Places)
		r.Get("/posts", s.Posts)
		r.Get("/reviews", s.Reviews)
		r.Get("/pois/nearby", s.NearbyPOIs)
	})
	return r
}
