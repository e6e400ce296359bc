package planner

import (
	"context"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
)

// Resolver produces candidate sets for the planning recipes.
type Resolver interface {
	DayPlan(ctx context.Context, text string, prefs domain.Preferences) (candidate.Set, error)
	MatchClients(ctx context.Context, text string, topK int) (candidate.Set, error)
	LookupPlaces(ctx context.Context, text string, topK int, requireCoordinates bool) candidate.Set
}

// Generator issues one completion request.
type Generator interface {
	Complete(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
