// Package planner runs the day-plan and client-matching flows.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
	"github.com/gobahrain/gobahrain/internal/logger"
	"github.com/gobahrain/gobahrain/internal/usecase/parser"
	"github.com/gobahrain/gobahrain/internal/usecase/prompt"
)

// DefaultLookupTopK is the place-lookup size used when day-plan resolution cannot run.
const DefaultLookupTopK = 5

// PlanResult is a generated day plan with its diagnostics.
type PlanResult struct {
	DayPlan string
	Items   []domain.PlanItem
	Issues  []Issue
	// UsedPlacesCount is approximate: candidates whose name occurs case-insensitively in DayPlan.
	UsedPlacesCount int
	CandidateCount  int
	Fallback        bool
	Latency         time.Duration
}

// MatchResult is the raw client matches for a preference profile.
type MatchResult struct {
	Clients []domain.ScoredMatch
	Latency time.Duration
}

// Service orchestrates resolve, prompt, generate, parse and validate.
type Service struct {
	resolver   Resolver
	generator  Generator
	validator  *Validator
	lookupTopK int
}

// New creates a planner. A nil validator trusts model output.
func New(resolver Resolver, generator Generator, validator *Validator) *Service {
	if validator == nil {
		validator = NewValidator(false)
	}
	return &Service{
		resolver:   resolver,
		generator:  generator,
		validator:  validator,
		lookupTopK: DefaultLookupTopK,
	}
}

// Plan generates a day plan for message.
func (s *Service) Plan(ctx context.Context, message string, prefs domain.Preferences) (PlanResult, error) {
	start := time.Now()
	ctx = logger.With(ctx, zap.String("flow", "day_plan"))
	log := logger.FromContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return PlanResult{}, fmt.Errorf("message is required: %w", domain.ErrInvalidRequest)
	}

	set, err := s.resolver.DayPlan(ctx, message, prefs)
	if err != nil {
		if errors.Is(err, domain.ErrTokenQuotaExceeded) {
			return PlanResult{}, err
		}
		log.Warn("Day-plan resolution failed, using place lookup", zap.Error(err))
		set = s.resolver.LookupPlaces(ctx, message, s.lookupTopK, false)
	} else if set.Len() == 0 {
		log.Warn("Day-plan resolution returned no candidates, using place lookup")
		set = s.resolver.LookupPlaces(ctx, message, s.lookupTopK, false)
	}

	contextBlock := prompt.BuildContext(set.Candidates, prefs)
	gen, err := s.generator.Complete(ctx, domain.GenerationRequest{
		System: prompt.DayPlanSystemPrompt(contextBlock, prefs),
		Messages: []domain.ChatTurn{
			{Role: domain.RoleUser, Text: prompt.DayPlanUserPrompt(message, prefs)},
		},
		Temperature: prompt.DayPlanTemperature,
		MaxTokens:   prompt.DayPlanMaxTokens,
	})
	if err != nil {
		return PlanResult{}, fmt.Errorf("generate day plan: %w", err)
	}

	items, err := parser.ParseDayPlan(gen.Text)
	if err != nil {
		log.Warn("Day plan unparseable", zap.Error(err), zap.Int("response_len", len(gen.Text)))
		return PlanResult{}, err
	}

	items, report, err := s.validator.Apply(items, set.Candidates)
	if err != nil {
		return PlanResult{}, err
	}
	if !report.OK() {
		log.Info("Day plan validation issues",
			zap.Int("issues", len(report.Issues)),
			zap.Bool("strict", s.validator.Strict()),
		)
	}

	return PlanResult{
		DayPlan:         gen.Text,
		Items:           items,
		Issues:          report.Issues,
		UsedPlacesCount: UsedPlacesCount(gen.Text, set.Candidates),
		CandidateCount:  set.Len(),
		Fallback:        set.Fallback,
		Latency:         time.Since(start),
	}, nil
}

// MatchClients returns client profiles matching interests and food categories.
func (s *Service) MatchClients(ctx context.Context, interests, food []string, topK int) (MatchResult, error) {
	start := time.Now()

	set, err := s.resolver.MatchClients(ctx, prompt.MatchQuery(interests, food), topK)
	if err != nil {
		return MatchResult{}, err
	}

	clients := make([]domain.ScoredMatch, 0, set.Len())
	for _, c := range set.Candidates {
		clients = append(clients, domain.ScoredMatch{ID: c.ID(), Score: c.Score(), Metadata: c.Meta()})
	}
	return MatchResult{Clients: clients, Latency: time.Since(start)}, nil
}

// UsedPlacesCount counts candidates whose name occurs case-insensitively in text.
// It is a substring heuristic, not an exact reference check.
func UsedPlacesCount(text string, cands []candidate.Record) int {
	lower := strings.ToLower(text)
	n := 0
	for _, c := range cands {
		if strings.Contains(lower, c.NameKey()) {
			n++
		}
	}
	return n
}
