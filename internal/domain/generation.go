package domain

import (
	"context"
	"time"
)

// Generator issues a single chat completion request and returns the raw text.
type Generator interface {
	Complete(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is one completion call: a system instruction, the conversation and decoding parameters.
type GenerationRequest struct {
	System      string
	Messages    []ChatTurn
	Temperature float32
	MaxTokens   int
}

// GenerationResult carries the raw completion text, token usage and call latency.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Latency          time.Duration
}
