// Package pinecone is a minimal REST client for a Pinecone serverless index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/metrics"
)

const (
	providerName   = "pinecone"
	maxErrorBody   = 4096
	defaultMaxTopK = 100
)

// Client executes nearest-neighbour queries against one index host.
type Client struct {
	host      string
	apiKey    string
	namespace string
	maxTopK   int
	http      *http.Client
	logger    *zap.Logger
}

// Config holds the index connection settings.
type Config struct {
	Host      string
	APIKey    string
	Namespace string
	MaxTopK   int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewClient creates a Pinecone index client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTopK := cfg.MaxTopK
	if maxTopK <= 0 {
		maxTopK = defaultMaxTopK
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	host := strings.TrimRight(cfg.Host, "/")
	if host != "" && !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &Client{
		host:      host,
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
		maxTopK:   maxTopK,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Namespace       string         `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query implements domain.VectorSearcher. Matches keep the provider's order.
func (c *Client) Query(ctx context.Context, q domain.VectorQuery) (domain.QueryResult, error) {
	if len(q.Vector) == 0 {
		return domain.QueryResult{}, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidRequest)
	}

	namespace := q.Namespace
	if namespace == "" {
		namespace = c.namespace
	}
	req := queryRequest{
		Vector:          q.Vector,
		TopK:            domain.ClampTopK(q.TopK, c.maxTopK),
		Filter:          BuildFilter(q.Filter),
		IncludeMetadata: true,
		Namespace:       namespace,
	}

	start := time.Now()
	var resp queryResponse
	err := c.postJSON(ctx, "/query", req, &resp)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveError(metrics.KindVectorQuery, providerName, namespaceLabel(namespace), "api_error")
		c.logger.Warn("vector query failed",
			zap.String("filter", q.Filter.String()),
			zap.Int("top_k", req.TopK),
			zap.Error(err),
		)
		return domain.QueryResult{}, err
	}

	metrics.ObserveSuccess(metrics.KindVectorQuery, providerName, namespaceLabel(namespace), duration.Seconds())

	matches := make([]domain.ScoredMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.ScoredMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}

	c.logger.Debug("vector query",
		zap.String("filter", q.Filter.String()),
		zap.Int("top_k", req.TopK),
		zap.Int("matches", len(matches)),
		zap.Duration("latency", duration),
	)

	return domain.QueryResult{Matches: matches, Latency: duration}, nil
}

// HealthCheck verifies the index is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.postJSON(ctx, "/describe_index_stats", struct{}{}, nil)
}

// BuildFilter renders a filter in the provider wire format.
// Zero clauses yield nil, one clause is emitted bare, two or more are wrapped in $and.
func BuildFilter(f domain.Filter) map[string]any {
	clauses := f.Clauses()
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return eqClause(clauses[0])
	}
	and := make([]map[string]any, len(clauses))
	for i, cl := range clauses {
		and[i] = eqClause(cl)
	}
	return map[string]any{"$and": and}
}

func eqClause(cl domain.Clause) map[string]any {
	return map[string]any{cl.Field: map[string]any{"$eq": cl.Value}}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	if c.host == "" {
		return fmt.Errorf("index host is not configured: %w", domain.ErrConfig)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("vector query timed out: %w", domain.ErrVectorSearchFailed)
		}
		return fmt.Errorf("vector query request: %v: %w", err, domain.ErrVectorSearchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("vector search API error %d: %s: %w",
			resp.StatusCode, errorMessage(raw, resp.Status), domain.ErrVectorSearchFailed)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, domain.ErrVectorSearchFailed)
	}
	return nil
}

// errorMessage extracts the provider message from {"message"}, {"error":{"message"}} or the raw body.
func errorMessage(raw []byte, status string) string {
	var parsed struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if json.Unmarshal(parsed.Error, &plain) == nil && plain != "" {
			return plain
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return status
}

func namespaceLabel(ns string) string {
	if ns == "" {
		return "default"
	}
	return ns
}
