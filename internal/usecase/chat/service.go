// Package chat runs the assistant conversation flow.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/logger"
	"github.com/gobahrain/gobahrain/internal/usecase/parser"
	"github.com/gobahrain/gobahrain/internal/usecase/prompt"
)

// MaxHistoryTurns is how many prior turns are sent to the model.
const MaxHistoryTurns = 10

// Request is one user message with its conversation so far.
type Request struct {
	Message     string
	History     []domain.ChatTurn
	Preferences domain.Preferences
}

// Response is the parsed assistant reply.
type Response struct {
	Reply           domain.ChatReply
	CandidatesCount int
	Latency         time.Duration
}

// Service answers chat messages grounded on resolved candidates.
type Service struct {
	resolver  Resolver
	generator Generator
}

// New creates a chat service.
func New(resolver Resolver, generator Generator) *Service {
	return &Service{resolver: resolver, generator: generator}
}

// Reply resolves candidates, asks the model and parses its answer.
// Retrieval failures degrade to an unconstrained prompt; generation failures are returned.
func (s *Service) Reply(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, fmt.Errorf("message is required: %w", domain.ErrInvalidRequest)
	}

	ctx = logger.With(ctx, zap.String("flow", "chat"))
	set, err := s.resolver.ChatContext(ctx, message)
	if err != nil {
		return Response{}, err
	}

	system := prompt.ChatSystemPrompt(prompt.BuildContext(set.Candidates, req.Preferences), req.Preferences)
	messages := append(recentHistory(req.History), domain.ChatTurn{Role: domain.RoleUser, Text: message})

	gen, err := s.generator.Complete(ctx, domain.GenerationRequest{
		System:      system,
		Messages:    messages,
		Temperature: prompt.ChatTemperature,
		MaxTokens:   prompt.ChatMaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("generate chat reply: %w", err)
	}

	reply := parser.ParseChatReply(gen.Text)
	logger.FromContext(ctx).Debug("Chat reply generated",
		zap.Int("candidates", set.Len()),
		zap.Int("history", len(messages)-1),
		zap.Int("actions", len(reply.Actions)),
	)

	return Response{
		Reply:           reply,
		CandidatesCount: set.Len(),
		Latency:         time.Since(start),
	}, nil
}

// recentHistory keeps the last MaxHistoryTurns non-empty turns with a known role.
// Roles are matched case-insensitively.
func recentHistory(history []domain.ChatTurn) []domain.ChatTurn {
	kept := make([]domain.ChatTurn, 0, len(history)+1)
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role, err := domain.ParseRole(string(t.Role))
		if err != nil {
			continue
		}
		t.Role = role
		kept = append(kept, t)
	}
	if len(kept) > MaxHistoryTurns {
		kept = kept[len(kept)-MaxHistoryTurns:]
	}
	return kept
}
