package budget

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Checker is the budget contract the decorators depend on.
type Checker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// Embedder enforces the budget around an inner embedder.
type Embedder struct {
	inner  domain.Embedder
	budget Checker
	logger *zap.Logger
}

// NewEmbedder wraps an embedder with budget enforcement.
func NewEmbedder(inner domain.Embedder, budget Checker, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{inner: inner, budget: budget, logger: logger}
}

// Embed checks the budget, delegates, then records usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := e.budget.Check(ctx); err != nil {
		e.logger.Error("Budget exceeded before embedding", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
	}

	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // inner error already carries its sentinel
	}

	e.budget.Record(int64(result.TotalTokens))
	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

// Generator enforces the budget around an inner generator.
type Generator struct {
	inner  domain.Generator
	budget Checker
	logger *zap.Logger
}

// NewGenerator wraps a generator with budget enforcement.
func NewGenerator(inner domain.Generator, budget Checker, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{inner: inner, budget: budget, logger: logger}
}

// Complete checks the budget, delegates, then records usage.
func (g *Generator) Complete(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if err := g.budget.Check(ctx); err != nil {
		g.logger.Error("Budget exceeded before generation", zap.Error(err))
		return domain.GenerationResult{}, fmt.Errorf("budget check: %w", err)
	}

	result, err := g.inner.Complete(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, err //nolint:wrapcheck // inner error already carries its sentinel
	}

	g.budget.Record(int64(result.TotalTokens))
	return result, nil
}

// HealthCheck delegates to the inner generator when it supports health checks.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}
