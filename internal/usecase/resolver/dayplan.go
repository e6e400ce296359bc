package resolver

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	"github.com/gobahrain/gobahrain/internal/metrics"
)

// categoryResult is one category's output inside the day-plan recipe.
type categoryResult struct {
	records  []candidate.Record
	steps    []candidate.Step
	fallback bool
}

// DayPlan assembles day-plan candidates: places, restaurants, breakfast and events
// fetched concurrently, each with its own fallback, merged in that order and capped.
// Only an embedding failure is fatal; a failed category degrades to empty.
func (s *Service) DayPlan(ctx context.Context, text string, prefs domain.Preferences) (candidate.Set, error) {
	ctx, span := s.startRecipe(ctx, RecipeDayPlan)
	defer span.End()

	vec, err := s.vectorize(ctx, text, DefaultDayPlanText)
	if err != nil {
		recordSpanError(span, err)
		return candidate.Set{}, err
	}

	var places, restaurants, breakfast, events categoryResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		places = s.dayPlanPlaces(gctx, vec)
		return nil
	})
	g.Go(func() error {
		restaurants = s.dayPlanRestaurants(gctx, vec, prefs.FoodLabels())
		return nil
	})
	g.Go(func() error {
		breakfast = s.dayPlanBreakfast(gctx, vec)
		return nil
	})
	g.Go(func() error {
		events = s.dayPlanEvents(gctx, vec)
		return nil
	})
	_ = g.Wait()

	ordered := []struct {
		name string
		res  categoryResult
	}{
		{CategoryPlaces, places},
		{CategoryRestaurants, restaurants},
		{CategoryBreakfast, breakfast},
		{CategoryEvents, events},
	}

	var set candidate.Set
	var merged []tagged
	for _, c := range ordered {
		set.Steps = append(set.Steps, c.res.steps...)
		set.Fallback = set.Fallback || c.res.fallback
		for _, r := range c.res.records {
			merged = append(merged, tagged{rec: r, category: c.name})
		}
	}

	set.Candidates = capDayPlan(dedupTaggedByName(merged), s.limits.DayPlanTotal)
	span.SetAttributes(attribute.Int("result.count", set.Len()))
	s.logger.Debug("Day-plan candidates resolved",
		zap.Int("places", len(places.records)),
		zap.Int("restaurants", len(restaurants.records)),
		zap.Int("breakfast", len(breakfast.records)),
		zap.Int("events", len(events.records)),
		zap.Int("total", set.Len()),
	)
	return set, nil
}

// dayPlanPlaces walks the places fallback chain: exact place filter, any non-restaurant client,
// then any client. A failed step advances the chain like an empty one.
func (s *Service) dayPlanPlaces(ctx context.Context, vec []float32) categoryResult {
	clients := domain.NewFilter(domain.Eq(candidate.FieldRecordType, candidate.RecordTypeClient))
	chain := []struct {
		step   string
		filter domain.Filter
		topK   int
		keep   func(candidate.Record) bool
	}{
		{"exact", domain.NewFilter(domain.Eq(candidate.FieldClientType, candidate.ClientTypePlace)), s.limits.Places, nil},
		{"non_restaurant", clients, s.limits.PlacesBroad, func(r candidate.Record) bool {
			return r.Kind() != candidate.KindRestaurant
		}},
		{"any_client", clients, s.limits.PlacesAny, nil},
	}

	var res categoryResult
	for i, link := range chain {
		if i > 0 {
			res.fallback = true
			metrics.ResolverFallbacksTotal.WithLabelValues(RecipeDayPlan, CategoryPlaces, link.step).Inc()
		}
		recs, step := s.query(ctx, RecipeDayPlan, CategoryPlaces, vec, link.filter, link.topK)
		res.steps = append(res.steps, step)
		if link.keep != nil {
			recs = keep(recs, link.keep)
		}
		if len(recs) > 0 {
			res.records = truncate(recs, s.limits.Places)
			return res
		}
	}
	s.logger.Warn("No places after all fallbacks")
	return res
}

// dayPlanRestaurants runs one exact cuisine query per preferred label plus one similarity query,
// exact matches first in preference order, deduplicated by source id.
func (s *Service) dayPlanRestaurants(ctx context.Context, vec []float32, foodLabels []string) categoryResult {
	restaurants := domain.NewFilter(domain.Eq(candidate.FieldClientType, candidate.ClientTypeRest))
	cuisines := candidate.CuisineValues(foodLabels)

	if len(cuisines) == 0 {
		recs, step := s.query(ctx, RecipeDayPlan, CategoryRestaurants, vec, restaurants, s.limits.RestaurantSimilar)
		return categoryResult{
			records: truncate(recs, s.limits.RestaurantSimilar),
			steps:   []candidate.Step{step},
		}
	}

	exact := make([][]candidate.Record, len(cuisines))
	exactSteps := make([]candidate.Step, len(cuisines))
	var similar []candidate.Record
	var similarStep candidate.Step

	g, gctx := errgroup.WithContext(ctx)
	for i, cuisine := range cuisines {
		g.Go(func() error {
			filter := restaurants.With(domain.Eq(candidate.FieldCuisine, cuisine))
			recs, step := s.query(gctx, RecipeDayPlan, CategoryRestaurants, vec, filter, s.limits.RestaurantExact)
			exact[i] = truncate(recs, s.limits.RestaurantExact)
			exactSteps[i] = step
			return nil
		})
	}
	g.Go(func() error {
		recs, step := s.query(gctx, RecipeDayPlan, CategoryRestaurants, vec, restaurants, s.limits.RestaurantSimilar)
		similar = truncate(recs, s.limits.RestaurantSimilar)
		similarStep = step
		return nil
	})
	_ = g.Wait()

	return categoryResult{
		records: dedupByID(append(concat(exact...), similar...)),
		steps:   append(exactSteps, similarStep),
	}
}

// dayPlanBreakfast queries breakfast restaurants, falling back to any restaurant.
func (s *Service) dayPlanBreakfast(ctx context.Context, vec []float32) categoryResult {
	restaurants := domain.NewFilter(domain.Eq(candidate.FieldClientType, candidate.ClientTypeRest))
	filter := restaurants.With(domain.Eq(candidate.FieldMealType, "Breakfast"))

	recs, step := s.query(ctx, RecipeDayPlan, CategoryBreakfast, vec, filter, s.limits.Breakfast)
	res := categoryResult{steps: []candidate.Step{step}}
	if len(recs) > 0 {
		res.records = truncate(recs, s.limits.Breakfast)
		return res
	}

	metrics.ResolverFallbacksTotal.WithLabelValues(RecipeDayPlan, CategoryBreakfast, "any_restaurant").Inc()
	res.fallback = true
	recs, step = s.query(ctx, RecipeDayPlan, CategoryBreakfast, vec, restaurants, s.limits.Breakfast)
	res.steps = append(res.steps, step)
	res.records = truncate(recs, s.limits.Breakfast)
	return res
}

// dayPlanEvents has no fallback; zero events is acceptable.
func (s *Service) dayPlanEvents(ctx context.Context, vec []float32) categoryResult {
	filter := domain.NewFilter(domain.Eq(candidate.FieldRecordType, candidate.RecordTypeEvent))
	recs, step := s.query(ctx, RecipeDayPlan, CategoryEvents, vec, filter, s.limits.Events)
	return categoryResult{records: truncate(recs, s.limits.Events), steps: []candidate.Step{step}}
}

type tagged struct {
	rec      candidate.Record
	category string
}

func dedupTaggedByName(in []tagged) []tagged {
	seen := make(map[string]struct{}, len(in))
	out := make([]tagged, 0, len(in))
	for _, t := range in {
		key := t.rec.NameKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// capDayPlan truncates to limit while keeping the first breakfast and first event candidate.
// Remaining slots fill in merge order and output stays in merge order.
func capDayPlan(in []tagged, limit int) []candidate.Record {
	selected := make([]bool, len(in))
	count := 0
	if len(in) > limit {
		for _, category := range []string{CategoryBreakfast, CategoryEvents} {
			for i, t := range in {
				if t.category == category {
					if count < limit {
						selected[i] = true
						count++
					}
					break
				}
			}
		}
	}
	for i := range in {
		if count >= limit {
			break
		}
		if !selected[i] {
			selected[i] = true
			count++
		}
	}

	out := make([]candidate.Record, 0, count)
	for i, t := range in {
		if selected[i] {
			out = append(out, t.rec)
		}
	}
	return out
}

func keep(recs []candidate.Record, pred func(candidate.Record) bool) []candidate.Record {
	out := make([]candidate.Record, 0, len(recs))
	for _, r := range recs {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
