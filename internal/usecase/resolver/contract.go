package resolver

import (
	"context"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs one nearest-neighbour query.
type Searcher interface {
	Query(ctx context.Context, q domain.VectorQuery) (domain.QueryResult, error)
}
