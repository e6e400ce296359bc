package gobahrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for gobahrain_sdk_calls_total.
const (
	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeUpstream  = "upstream"
	outcomeServer    = "server"
	outcomeCanceled  = "canceled"
	outcomeTransport = "transport"
)

// Token usage headers set by the server on generative routes.
var tokenHeaders = map[string]string{
	"embedding":  "X-Embedding-Tokens",
	"generation": "X-Generation-Tokens",
}

type sdkMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	tokens  *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobahrain",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "API calls made by the client, by call and outcome.",
		}, []string{"call", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gobahrain",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "Client-observed API call latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"call"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobahrain",
			Subsystem: "sdk",
			Name:      "tokens_total",
			Help:      "Provider tokens the server reported spending on client calls.",
		}, []string{"path", "kind"}),
	}
	if err := reuseExisting(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := reuseExisting(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := reuseExisting(reg, &m.tokens); err != nil {
		return nil, err
	}
	return m, nil
}

// reuseExisting registers c, or points it at the collector already
// registered under the same descriptor so several clients can share reg.
func reuseExisting[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("gobahrain: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("gobahrain: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one finished client call.
func (o *observer) observe(call string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	outcome := outcomeOf(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(call, outcome).Inc()
		o.metrics.latency.WithLabelValues(call).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	if err == nil {
		o.logger.Debug("call completed", "call", call, "duration", dur)
		return
	}

	attrs := []any{"call", call, "outcome", outcome, "duration", dur, "error", err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status", apiErr.StatusCode, "code", apiErr.Code)
	}
	if outcome == outcomeRejected || outcome == outcomeCanceled {
		o.logger.Info("call failed", attrs...)
		return
	}
	o.logger.Warn("call failed", attrs...)
}

// recordTokens counts the token usage headers of a successful response.
func (o *observer) recordTokens(path string, h http.Header) {
	if o == nil || o.metrics == nil {
		return
	}
	for kind, name := range tokenHeaders {
		n, err := strconv.Atoi(h.Get(name))
		if err != nil || n <= 0 {
			continue
		}
		o.metrics.tokens.WithLabelValues(path, kind).Add(float64(n))
	}
}

// outcomeOf buckets an error by where the call failed. Provider failures
// relayed by the server count as upstream, other 4xx as rejected.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcomeCanceled
		}
		return outcomeTransport
	}
	switch {
	case errors.Is(apiErr, ErrEmbeddingProviderError),
		errors.Is(apiErr, ErrVectorSearchFailed),
		errors.Is(apiErr, ErrGenerationFailed),
		errors.Is(apiErr, ErrGatewayUnavailable):
		return outcomeUpstream
	case apiErr.StatusCode < http.StatusInternalServerError:
		return outcomeRejected
	default:
		return outcomeServer
	}
}
