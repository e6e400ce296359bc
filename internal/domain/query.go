package domain

import (
	"context"
	"strings"
	"time"
)

// MaxFilterClauses bounds the number of equality clauses in one filter.
const MaxFilterClauses = 16

// Clause is a single metadata equality constraint.
type Clause struct {
	Field string
	Value string
}

// Eq creates an equality clause.
func Eq(field, value string) Clause {
	return Clause{Field: field, Value: value}
}

// Filter is a conjunction of equality clauses. The zero value matches everything.
type Filter struct {
	clauses []Clause
}

// NewFilter creates a filter from clauses, skipping clauses with an empty field or value.
func NewFilter(clauses ...Clause) Filter {
	kept := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.Field == "" || c.Value == "" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) > MaxFilterClauses {
		kept = kept[:MaxFilterClauses]
	}
	return Filter{clauses: kept}
}

// Clauses returns the clauses in insertion order.
func (f Filter) Clauses() []Clause { return f.clauses }

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool { return len(f.clauses) == 0 }

// With returns a new filter with extra clauses appended.
func (f Filter) With(clauses ...Clause) Filter {
	all := make([]Clause, 0, len(f.clauses)+len(clauses))
	all = append(all, f.clauses...)
	all = append(all, clauses...)
	return NewFilter(all...)
}

// Value returns the value constrained for field, if any.
func (f Filter) Value(field string) (string, bool) {
	for _, c := range f.clauses {
		if c.Field == field {
			return c.Value, true
		}
	}
	return "", false
}

// String renders the filter as field=value pairs joined by " AND ".
func (f Filter) String() string {
	if f.IsEmpty() {
		return "*"
	}
	parts := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		parts[i] = c.Field + "=" + c.Value
	}
	return strings.Join(parts, " AND ")
}

// VectorQuery is a single nearest-neighbour request against the vector index.
type VectorQuery struct {
	Vector    []float32
	TopK      int
	Filter    Filter
	Namespace string
}

// ScoredMatch is one raw hit from the vector index, in provider order.
type ScoredMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResult is the outcome of a successful vector query. Zero matches is not an error.
type QueryResult struct {
	Matches []ScoredMatch
	Latency time.Duration
}

// VectorSearcher executes nearest-neighbour queries.
type VectorSearcher interface {
	Query(ctx context.Context, q VectorQuery) (QueryResult, error)
}

// QueryText trims text and substitutes fallback when nothing is left.
func QueryText(text, fallback string) string {
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return strings.TrimSpace(fallback)
}

// ClampTopK bounds topK to [1, maxTopK]. maxTopK <= 0 disables the upper bound.
func ClampTopK(topK, maxTopK int) int {
	if topK < 1 {
		topK = 1
	}
	if maxTopK > 0 && topK > maxTopK {
		topK = maxTopK
	}
	return topK
}
