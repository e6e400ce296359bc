// Package pgvector implements the vector index contract on a PostgreSQL table with the vector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/metrics"
)

const providerName = "pgvector"

// querier is the subset of pgxpool.Pool the searcher needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Searcher executes nearest-neighbour queries over (id, embedding, metadata jsonb) rows.
type Searcher struct {
	pool    querier
	table   string
	maxTopK int
	logger  *zap.Logger
}

// NewSearcher creates a searcher over the given table.
func NewSearcher(pool querier, table string, maxTopK int, logger *zap.Logger) *Searcher {
	if table == "" {
		table = "bahrain_vectors"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{pool: pool, table: table, maxTopK: maxTopK, logger: logger}
}

// Query implements domain.VectorSearcher. Score is cosine similarity, highest first.
func (s *Searcher) Query(ctx context.Context, q domain.VectorQuery) (domain.QueryResult, error) {
	if len(q.Vector) == 0 {
		return domain.QueryResult{}, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidRequest)
	}

	sql, args := buildQuery(s.table, q.Filter, domain.ClampTopK(q.TopK, s.maxTopK))
	args[0] = pgvector.NewVector(q.Vector)

	start := time.Now()
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		metrics.ObserveError(metrics.KindVectorQuery, providerName, s.table, "query_error")
		return domain.QueryResult{}, fmt.Errorf("pgvector query: %v: %w", err, domain.ErrVectorSearchFailed)
	}
	defer rows.Close()

	var matches []domain.ScoredMatch
	for rows.Next() {
		var (
			id       string
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&id, &raw, &distance); err != nil {
			return domain.QueryResult{}, fmt.Errorf("pgvector scan: %v: %w", err, domain.ErrVectorSearchFailed)
		}
		m := domain.ScoredMatch{ID: id, Score: 1 - distance}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &m.Metadata); err != nil {
				return domain.QueryResult{}, fmt.Errorf("pgvector metadata %s: %v: %w", id, err, domain.ErrVectorSearchFailed)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, fmt.Errorf("pgvector rows: %v: %w", err, domain.ErrVectorSearchFailed)
	}

	duration := time.Since(start)
	metrics.ObserveSuccess(metrics.KindVectorQuery, providerName, s.table, duration.Seconds())
	s.logger.Debug("pgvector query",
		zap.String("filter", q.Filter.String()),
		zap.Int("matches", len(matches)),
		zap.Duration("latency", duration),
	)

	return domain.QueryResult{Matches: matches, Latency: duration}, nil
}

// HealthCheck pings the pool.
func (s *Searcher) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgvector ping: %w", err)
	}
	return nil
}

// buildQuery renders the KNN statement. args[0] is reserved for the query vector.
// Each clause becomes metadata->>'field' = value with both sides bound as parameters.
func buildQuery(table string, f domain.Filter, topK int) (string, []any) {
	args := []any{nil}
	var where []string
	for _, c := range f.Clauses() {
		args = append(args, c.Field, c.Value)
		n := len(args)
		where = append(where, "metadata->>$"+strconv.Itoa(n-1)+"::text = $"+strconv.Itoa(n))
	}
	args = append(args, topK)

	var b strings.Builder
	b.WriteString("SELECT id, metadata, embedding <=> $1 AS distance FROM ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY embedding <=> $1 LIMIT $")
	b.WriteString(strconv.Itoa(len(args)))
	return b.String(), args
}
