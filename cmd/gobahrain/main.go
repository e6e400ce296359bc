package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/config"
	"github.com/gobahrain/gobahrain/internal/db/postgres"
	dbRedis "github.com/gobahrain/gobahrain/internal/db/redis"
	"github.com/gobahrain/gobahrain/internal/domain"
	logpkg "github.com/gobahrain/gobahrain/internal/logger"
	"github.com/gobahrain/gobahrain/internal/metrics"
	budgetrepo "github.com/gobahrain/gobahrain/internal/repository/budget"
	"github.com/gobahrain/gobahrain/internal/repository/gateway"
	"github.com/gobahrain/gobahrain/internal/repository/pgvector"
	chiTransport "github.com/gobahrain/gobahrain/internal/transport/chi"
	openaiTransport "github.com/gobahrain/gobahrain/internal/transport/openai"
	"github.com/gobahrain/gobahrain/internal/transport/pinecone"
	budgetuc "github.com/gobahrain/gobahrain/internal/usecase/budget"
	chatuc "github.com/gobahrain/gobahrain/internal/usecase/chat"
	healthuc "github.com/gobahrain/gobahrain/internal/usecase/health"
	"github.com/gobahrain/gobahrain/internal/usecase/planner"
	"github.com/gobahrain/gobahrain/internal/usecase/resolver"
	"github.com/gobahrain/gobahrain/internal/version"
)

// searcher is a vector index that can also report its health.
type searcher interface {
	domain.VectorSearcher
	domain.HealthChecker
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gobahrain API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.Bool("gateway", cfg.Database.Enabled()),
		zap.Bool("strict_validation", cfg.Plan.StrictValidation),
	)

	ctx := context.Background()

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	health := healthuc.New()

	// Token budget: in-memory tracker, persisted to Redis/Valkey when addrs are set.
	// Stays a nil interface (not a typed nil pointer) when no limit is configured.
	var budget budgetuc.Checker
	if cfg.Budget.Enabled() {
		tracker := budgetuc.NewTracker("openai",
			cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			budgetuc.Action(cfg.Budget.Action), logger,
		)
		if cfg.Budget.Persistent() {
			kv, err := dbRedis.NewStore(dbRedis.Config{
				Addrs:    cfg.Budget.Addrs,
				Password: cfg.Budget.Password,
			})
			if err != nil {
				logger.Fatal("Failed to create budget store", zap.Error(err))
			}
			defer kv.Close()

			readiness := time.Duration(cfg.Budget.ReadinessTimeout) * time.Second
			if err := kv.WaitForReady(ctx, readiness); err != nil {
				logger.Fatal("Budget store not ready", zap.Error(err))
			}
			tracker.WithStore(ctx, budgetrepo.New(kv, 0, 0))
			health.With(healthuc.ComponentBudgetStore, healthuc.CheckerFunc(kv.Ping))
			logger.Info("Connected to budget store", zap.Strings("addrs", cfg.Budget.Addrs))
		}
		budget = tracker
	}

	// Provider chain: OpenAI -> budget decorator
	providerCfg := openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Timeout:    cfg.OpenAI.Timeout(),
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
		Logger:     logger,
	}
	embedCfg := providerCfg
	embedCfg.Model = cfg.OpenAI.EmbeddingModel
	embedCfg.DefaultText = resolver.DefaultChatText
	genCfg := providerCfg
	genCfg.Model = cfg.OpenAI.ChatModel

	baseGenerator := openaiTransport.NewGenerator(&genCfg)
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&embedCfg)
	var generator domain.Generator = baseGenerator
	if budget != nil {
		embedder = budgetuc.NewEmbedder(embedder, budget, logger)
		generator = budgetuc.NewGenerator(generator, budget, logger)
	}
	health.With(healthuc.ComponentLLM, baseGenerator)

	index, closeIndex := buildSearcher(ctx, cfg, logger)
	defer closeIndex()
	health.With(healthuc.ComponentVector, index)

	// Relational gateway (optional)
	var community chiTransport.Community
	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:            cfg.Database.DSN,
			MaxConns:       cfg.Database.MaxConns,
			ConnectTimeout: time.Duration(cfg.Database.ConnectTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		store := gateway.New(pool)
		community = store
		health.With(healthuc.ComponentDatabase, healthuc.CheckerFunc(store.Ping))
		logger.Info("Connected to relational gateway")
	}

	// Use cases
	res := resolver.New(embedder, index, resolver.DefaultLimits(), logger).WithNamespace(cfg.Vector.Namespace)
	planSvc := planner.New(res, generator, planner.NewValidator(cfg.Plan.StrictValidation))
	chatSvc := chatuc.New(res, generator)

	server := chiTransport.NewServer(planSvc, chatSvc, res, community, health)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildSearcher creates the vector index client selected by vector.driver.
func buildSearcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (searcher, func()) {
	switch cfg.Vector.Driver {
	case config.DriverPGVector:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:            cfg.Vector.PGDSN,
			ConnectTimeout: cfg.Vector.Timeout(),
			RegisterVector: true,
		})
		if err != nil {
			logger.Fatal("Failed to connect to pgvector", zap.Error(err))
		}
		logger.Info("Vector index: pgvector", zap.String("table", cfg.Vector.PGTable))
		return pgvector.NewSearcher(pool, cfg.Vector.PGTable, cfg.Vector.MaxTopK, logger), pool.Close
	default:
		logger.Info("Vector index: pinecone", zap.String("host", cfg.Vector.Host))
		return pinecone.NewClient(pinecone.Config{
			Host:      cfg.Vector.Host,
			APIKey:    cfg.Vector.APIKey,
			Namespace: cfg.Vector.Namespace,
			MaxTopK:   cfg.Vector.MaxTopK,
			Timeout:   cfg.Vector.Timeout(),
			Logger:    logger,
		}), func() {}
	}
}
