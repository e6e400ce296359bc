package chat

import (
	"context"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
)

// Resolver produces the allowed-places set for a message.
type Resolver interface {
	ChatContext(ctx context.Context, text string) (candidate.Set, error)
}

// Generator issues one completion request.
type Generator interface {
	Complete(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
