package chi

import (
	"context"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	chatuc "github.com/gobahrain/gobahrain/internal/usecase/chat"
	healthuc "github.com/gobahrain/gobahrain/internal/usecase/health"
	"github.com/gobahrain/gobahrain/internal/usecase/planner"
)

// Planner runs the day-plan and client-matching flows.
type Planner interface {
	Plan(ctx context.Context, message string, prefs domain.Preferences) (planner.PlanResult, error)
	MatchClients(ctx context.Context, interests, food []string, topK int) (planner.MatchResult, error)
}

// Chatter answers chat messages.
type Chatter interface {
	Reply(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
}

// PlaceLister lists places for the explorer views.
type PlaceLister interface {
	LookupPlaces(ctx context.Context, text string, topK int, requireCoordinates bool) candidate.Set
}

// Community reads posts, reviews and points of interest from the relational backend.
type Community interface {
	SearchPosts(ctx context.Context, keyword string, limit int) ([]domain.Post, error)
	ReviewsForPlace(ctx context.Context, place string, limit int) ([]domain.Review, error)
	NearbyPOIs(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]domain.POI, error)
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
