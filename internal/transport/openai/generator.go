package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/metrics"
)

// Generator issues chat completions against an OpenAI-compatible API.
type Generator struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	provider string
	logger   *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat completion client.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:   newClient(cfg),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		provider: providerName(cfg),
		logger:   loggerOrNop(cfg.Logger),
	}
}

// Complete implements domain.Generator. One request, no streaming.
func (g *Generator) Complete(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(turn.Role),
			Content: turn.Text,
		})
	}
	if len(messages) == 0 {
		return domain.GenerationResult{}, fmt.Errorf("no messages to send: %w", domain.ErrInvalidRequest)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveError(metrics.KindGeneration, g.provider, g.model, "api_error")
		g.logger.Warn("completion request failed", zap.String("model", g.model), zap.Error(err))
		return domain.GenerationResult{}, parseAPIError("generation", err, domain.ErrGenerationFailed)
	}

	if len(resp.Choices) == 0 {
		metrics.ObserveError(metrics.KindGeneration, g.provider, g.model, "empty_response")
		return domain.GenerationResult{}, fmt.Errorf("completion has no choices: %w", domain.ErrGenerationFailed)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.ObserveError(metrics.KindGeneration, g.provider, g.model, "empty_response")
		return domain.GenerationResult{}, fmt.Errorf("completion has no message text: %w", domain.ErrGenerationFailed)
	}

	metrics.ObserveSuccess(metrics.KindGeneration, g.provider, g.model, duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.TokensTotal.WithLabelValues(metrics.KindGeneration, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.TokensTotal.WithLabelValues(metrics.KindGeneration, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	domain.UsageFromContext(ctx).AddGeneration(resp.Usage.TotalTokens)

	g.logger.Debug("completion created",
		zap.String("model", g.model),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", duration),
	)

	return domain.GenerationResult{
		Text:             text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Latency:          duration,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	return listModels(ctx, g.client)
}

func chatRole(r domain.Role) string {
	if r == domain.RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
