package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// unmatchedRoute labels requests no route matched (404s, auth rejections before routing).
const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gobahrain",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route",
			// Day plans take tens of seconds; health checks a few milliseconds.
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route",
		},
		[]string{"method", "route", "status"},
	)

	httpRouteTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "http_route_tokens_total",
			Help:      "Provider tokens spent per route, from the token usage response headers",
		},
		[]string{"route", "kind"},
	)
)

// Middleware records request duration and count per chi route pattern, and the
// embedding and generation tokens each route spent.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := routeLabel(r)
			status := strconv.Itoa(ww.status)
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()

			addTokens(route, KindEmbedding, ww.Header().Get(domain.HeaderEmbeddingTokens))
			addTokens(route, KindGeneration, ww.Header().Get(domain.HeaderGenerationTokens))
		})
	}
}

// routeLabel uses the matched route pattern so path parameters never become label values.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

func addTokens(route, kind, header string) {
	n, err := strconv.Atoi(header)
	if err != nil || n <= 0 {
		return
	}
	httpRouteTokensTotal.WithLabelValues(route, kind).Add(float64(n))
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
