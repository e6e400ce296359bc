// Package resolver turns query text into bounded candidate sets through fixed resolution recipes.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	"github.com/gobahrain/gobahrain/internal/metrics"
)

// Default phrases substituted for empty query text.
const (
	DefaultChatText    = "things to do in Bahrain"
	DefaultDayPlanText = "a full day exploring Bahrain"
	DefaultClientsText = "popular places in Bahrain"
	DefaultLookupText  = "famous places in Bahrain"
)

// Recipe names.
const (
	RecipeChat    = "chat"
	RecipeDayPlan = "day_plan"
	RecipeClients = "clients"
	RecipeLookup  = "place_lookup"
)

// Category names.
const (
	CategoryPlaces      = "places"
	CategoryRestaurants = "restaurants"
	CategoryBreakfast   = "breakfast"
	CategoryEvents      = "events"
	CategoryClients     = "clients"
)

// Service executes resolution recipes. Every call is stateless.
type Service struct {
	embed     Embedder
	search    Searcher
	limits    Limits
	namespace string
	logger    *zap.Logger
	tracer    trace.Tracer
}

// New creates a resolver. Non-positive limits fall back to DefaultLimits.
func New(embed Embedder, search Searcher, limits Limits, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:  embed,
		search: search,
		limits: limits.withDefaults(),
		logger: logger,
		tracer: otel.Tracer("resolver"),
	}
}

// WithNamespace sets the index namespace used by every query.
func (s *Service) WithNamespace(namespace string) *Service {
	s.namespace = namespace
	return s
}

// Limits returns the effective caps.
func (s *Service) Limits() Limits { return s.limits }

// ChatContext resolves the allowed-places list for the chat assistant:
// places, restaurants and events queried concurrently, concatenated in that order and deduplicated by name.
// Provider failures degrade to an empty set; only a budget rejection is returned as an error.
func (s *Service) ChatContext(ctx context.Context, text string) (candidate.Set, error) {
	ctx, span := s.startRecipe(ctx, RecipeChat)
	defer span.End()

	vec, err := s.vectorize(ctx, text, DefaultChatText)
	if err != nil {
		s.logger.Warn("Chat context degraded to empty set", zap.Error(err))
		recordSpanError(span, err)
		if errors.Is(err, domain.ErrTokenQuotaExceeded) {
			return candidate.Set{}, err
		}
		return candidate.Set{Fallback: true}, nil
	}

	type fetch struct {
		category string
		filter   domain.Filter
		topK     int
	}
	fetches := []fetch{
		{CategoryPlaces, domain.NewFilter(
			domain.Eq(candidate.FieldRecordType, candidate.RecordTypeClient),
			domain.Eq(candidate.FieldClientType, candidate.ClientTypePlace),
		), s.limits.ChatPlaces},
		{CategoryRestaurants, domain.NewFilter(
			domain.Eq(candidate.FieldRecordType, candidate.RecordTypeClient),
			domain.Eq(candidate.FieldClientType, candidate.ClientTypeRest),
		), s.limits.ChatRestaurants},
		{CategoryEvents, domain.NewFilter(
			domain.Eq(candidate.FieldRecordType, candidate.RecordTypeEvent),
		), s.limits.ChatEvents},
	}

	records := make([][]candidate.Record, len(fetches))
	steps := make([]candidate.Step, len(fetches))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fetches {
		g.Go(func() error {
			recs, step := s.query(gctx, RecipeChat, f.category, vec, f.filter, f.topK)
			records[i] = truncate(recs, f.topK)
			steps[i] = step
			return nil
		})
	}
	_ = g.Wait()

	set := candidate.Set{Steps: steps}
	failed := 0
	for _, st := range steps {
		if st.Err != nil {
			failed++
		}
	}
	if failed == len(steps) {
		s.logger.Warn("All chat context queries failed")
		set.Fallback = true
		return set, nil
	}

	set.Candidates = dedupByName(concat(records...))
	span.SetAttributes(attribute.Int("result.count", set.Len()))
	return set, nil
}

// MatchClients runs a single client-profile query with no fallback.
func (s *Service) MatchClients(ctx context.Context, text string, topK int) (candidate.Set, error) {
	ctx, span := s.startRecipe(ctx, RecipeClients)
	defer span.End()

	if topK <= 0 {
		topK = s.limits.Clients
	}

	vec, err := s.vectorize(ctx, text, DefaultClientsText)
	if err != nil {
		recordSpanError(span, err)
		return candidate.Set{}, err
	}

	filter := domain.NewFilter(domain.Eq(candidate.FieldRecordType, candidate.RecordTypeClient))
	recs, step := s.query(ctx, RecipeClients, CategoryClients, vec, filter, topK)
	set := candidate.Set{Steps: []candidate.Step{step}}
	if step.Err != nil {
		recordSpanError(span, step.Err)
		return set, fmt.Errorf("match clients: %w", step.Err)
	}

	set.Candidates = truncate(recs, topK)
	return set, nil
}

// LookupPlaces lists places for text. With requireCoordinates only mappable records are kept.
// Any failure, or nothing left after filtering, substitutes the static place list.
func (s *Service) LookupPlaces(
	ctx context.Context, text string, topK int, requireCoordinates bool,
) candidate.Set {
	ctx, span := s.startRecipe(ctx, RecipeLookup)
	defer span.End()

	if topK <= 0 {
		topK = s.limits.Listing
	}

	vec, err := s.vectorize(ctx, text, DefaultLookupText)
	if err != nil {
		s.logger.Warn("Place lookup using static places", zap.Error(err))
		recordSpanError(span, err)
		return s.staticSet(nil, "embedding")
	}

	filter := domain.NewFilter(domain.Eq(candidate.FieldRecordType, candidate.RecordTypeClient))
	recs, step := s.query(ctx, RecipeLookup, CategoryPlaces, vec, filter, topK)
	steps := []candidate.Step{step}
	if step.Err != nil {
		recordSpanError(span, step.Err)
		return s.staticSet(steps, "query")
	}

	if requireCoordinates {
		recs = withCoordinates(recs)
	}
	recs = truncate(dedupByName(recs), topK)
	if len(recs) == 0 {
		return s.staticSet(steps, "empty")
	}
	return candidate.Set{Candidates: recs, Steps: steps}
}

func (s *Service) staticSet(steps []candidate.Step, reason string) candidate.Set {
	metrics.ResolverFallbacksTotal.WithLabelValues(RecipeLookup, CategoryPlaces, "static_"+reason).Inc()
	return candidate.Set{Candidates: StaticPlaces(), Steps: steps, Fallback: true}
}

// vectorize embeds text, substituting fallback for empty input.
func (s *Service) vectorize(ctx context.Context, text, fallback string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, domain.QueryText(text, fallback))
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

// query runs one vector search and normalizes the matches. Failures are reported in the step.
func (s *Service) query(
	ctx context.Context, recipe, category string, vec []float32, filter domain.Filter, topK int,
) ([]candidate.Record, candidate.Step) {
	ctx, span := s.tracer.Start(ctx, "resolver.query", trace.WithAttributes(
		attribute.String("recipe", recipe),
		attribute.String("category", category),
		attribute.String("filter", filter.String()),
		attribute.Int("top_k", topK),
	))
	defer span.End()

	step := candidate.Step{Category: category, Filter: filter.String(), TopK: topK}
	start := time.Now()
	res, err := s.search.Query(ctx, domain.VectorQuery{
		Vector:    vec,
		TopK:      topK,
		Filter:    filter,
		Namespace: s.namespace,
	})
	step.Latency = time.Since(start)
	if err != nil {
		step.Err = err
		recordSpanError(span, err)
		s.logger.Warn("Vector query failed",
			zap.String("recipe", recipe),
			zap.String("category", category),
			zap.String("filter", step.Filter),
			zap.Error(err),
		)
		return nil, step
	}

	step.Matches = len(res.Matches)
	span.SetAttributes(attribute.Int("result.count", step.Matches))
	return candidate.FromMatches(res.Matches), step
}

func (s *Service) startRecipe(ctx context.Context, recipe string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "resolver."+recipe, trace.WithAttributes(attribute.String("recipe", recipe)))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func concat(groups ...[]candidate.Record) []candidate.Record {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]candidate.Record, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// dedupByName keeps the first record for every case-insensitive name.
func dedupByName(recs []candidate.Record) []candidate.Record {
	return dedupBy(recs, candidate.Record.NameKey)
}

// dedupByID keeps the first record for every source id, falling back to the name key.
func dedupByID(recs []candidate.Record) []candidate.Record {
	return dedupBy(recs, func(r candidate.Record) string {
		if r.ID() != "" {
			return "id:" + r.ID()
		}
		return "name:" + r.NameKey()
	})
}

func dedupBy(recs []candidate.Record, key func(candidate.Record) string) []candidate.Record {
	om := orderedmap.New[string, candidate.Record](len(recs))
	for _, r := range recs {
		k := key(r)
		if _, present := om.Get(k); present {
			continue
		}
		om.Set(k, r)
	}
	out := make([]candidate.Record, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func truncate(recs []candidate.Record, n int) []candidate.Record {
	if n >= 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

func withCoordinates(recs []candidate.Record) []candidate.Record {
	out := make([]candidate.Record, 0, len(recs))
	for _, r := range recs {
		if _, ok := r.Coordinates(); ok {
			out = append(out, r)
		}
	}
	return out
}
