package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider call metrics. The "kind" label is one of embedding, vector_query, generation.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "provider_requests_total",
			Help:      "Total number of external provider requests",
		},
		[]string{"kind", "provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gobahrain",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "provider", "model"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "provider_errors_total",
			Help:      "Total external provider errors",
		},
		[]string{"kind", "provider", "model", "error_type"},
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gobahrain",
			Name:      "budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"period"},
	)

	ResolverFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gobahrain",
			Name:      "resolver_fallbacks_total",
			Help:      "Resolution steps that advanced a fallback chain",
		},
		[]string{"recipe", "category", "step"},
	)
)

// Provider kinds.
const (
	KindEmbedding   = "embedding"
	KindVectorQuery = "vector_query"
	KindGeneration  = "generation"
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider, budget, resolver and HTTP metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(TokensTotal)
	prometheus.MustRegister(BudgetTokensRemaining)
	prometheus.MustRegister(ResolverFallbacksTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRouteTokensTotal)
	providerMetricsRegistered = true
}

// ObserveSuccess records a successful provider call.
func ObserveSuccess(kind, provider, model string, seconds float64) {
	ProviderRequestsTotal.WithLabelValues(kind, provider, model, "success").Inc()
	ProviderRequestDuration.WithLabelValues(kind, provider, model).Observe(seconds)
}

// ObserveError records a failed provider call.
func ObserveError(kind, provider, model, errorType string) {
	ProviderRequestsTotal.WithLabelValues(kind, provider, model, "error").Inc()
	ProviderErrorsTotal.WithLabelValues(kind, provider, model, errorType).Inc()
}
