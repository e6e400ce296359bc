package domain

import (
	"context"
	"sync"
)

// Response headers carrying a request's token usage.
const (
	HeaderEmbeddingTokens  = "X-Embedding-Tokens"
	HeaderGenerationTokens = "X-Generation-Tokens"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single HTTP request.
// The handler puts it into the context before calling the service; clients add to it
// after each provider call; the handler reads it for response headers.
// Safe for concurrent use because resolver fan-out shares the request context.
type TokenUsage struct {
	mu              sync.Mutex
	embedTokens     int
	generatedTokens int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records tokens consumed by an embedding call.
func (u *TokenUsage) AddEmbedding(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embedTokens += n
	u.mu.Unlock()
}

// AddGeneration records tokens consumed by a completion call.
func (u *TokenUsage) AddGeneration(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generatedTokens += n
	u.mu.Unlock()
}

// Totals returns embedding and generation token counts.
func (u *TokenUsage) Totals() (embedding, generation int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embedTokens, u.generatedTokens
}
