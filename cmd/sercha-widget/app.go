package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-widget/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-widget/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-widget/internal/adapters/driven/postgres"
	"github.com/custodia-labs/sercha-widget/internal/adapters/driven/qdrant"
	redisadapter "github.com/custodia-labs/sercha-widget/internal/adapters/driven/redis"
	httpserver "github.com/custodia-labs/sercha-widget/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-widget/internal/config"
	"github.com/custodia-labs/sercha-widget/internal/content"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-widget/internal/core/services"
	"github.com/custodia-labs/sercha-widget/internal/normalisers"
)

// app holds the connected infrastructure and the services built on it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db      *postgres.DB
	redis   *redis.Client
	vectors *qdrant.VectorStore
	queue   driven.TaskQueue

	auth     driving.AuthService
	reindex  *services.ReindexOrchestrator
	teardown *services.TeardownOrchestrator
}

// newApp connects to Postgres, Redis (optional) and Qdrant, makes sure the
// collection exists and builds the reindex and teardown services.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, auth: newAuthService(cfg)}

	// ===== PostgreSQL =====
	logger.Info("connecting to postgres")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	// ===== Redis (optional) =====
	if cfg.Redis.URL != "" {
		logger.Info("connecting to redis")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}

		consumer := cfg.Worker.ConsumerName
		if consumer == "" {
			consumer = fmt.Sprintf("worker-%d", os.Getpid())
		}
		queue, err := redisadapter.NewQueue(ctx, a.redis, consumer)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create task queue: %w", err)
		}
		a.queue = queue
	} else {
		logger.Info("redis not configured, async reindex and worker disabled")
	}

	// ===== Qdrant =====
	logger.Info("connecting to qdrant", "host", cfg.Qdrant.Host, "collection", cfg.Qdrant.Collection)
	vectors, err := qdrant.NewVectorStore(qdrant.Config{
		Host:         cfg.Qdrant.Host,
		Port:         cfg.Qdrant.Port,
		APIKey:       cfg.Qdrant.APIKey,
		UseTLS:       cfg.Qdrant.UseTLS,
		Collection:   cfg.Qdrant.Collection,
		VectorSize:   uint64(cfg.Embedding.Dimensions),
		MaxRetries:   cfg.Qdrant.MaxRetries,
		RetryBackoff: cfg.Qdrant.RetryBackoff,
		BatchSize:    cfg.Qdrant.BatchSize,
		Logger:       logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.vectors = vectors
	if err := vectors.EnsureCollection(ctx, cfg.Embedding.Dimensions); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	// ===== Embedding =====
	embedder, err := ai.NewEmbeddingService(ai.EmbeddingSettings{
		Provider:          cfg.Embedding.Provider,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		BaseURL:           cfg.Embedding.BaseURL,
		Dimensions:        cfg.Embedding.Dimensions,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Timeout:           cfg.Embedding.Timeout,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedding service: %w", err)
	}

	// ===== Services =====
	exec := postgres.NewExecutor(db)
	tenants := postgres.NewTenantStore(exec)

	guard := services.NewTenantGuard(services.GuardConfig{
		Lock:         a.distributedLock(),
		LockTTL:      cfg.Reindex.LockTTL,
		PollInterval: cfg.Reindex.PollInterval,
		Logger:       logger,
	})

	indexer := services.NewIndexer(services.IndexerConfig{
		Embedder:      embedder,
		Store:         vectors,
		Normalisers:   normalisers.DefaultRegistry(),
		Concurrency:   cfg.Indexer.Concurrency,
		MaxInputChars: cfg.Indexer.MaxInputChars,
		Logger:        logger,
	})

	a.reindex = services.NewReindexOrchestrator(services.ReindexOrchestratorConfig{
		Tenants:  tenants,
		Reader:   content.NewReader(exec, logger),
		Indexer:  indexer,
		Registry: postgres.NewNamespaceRegistry(exec),
		Queue:    a.queue,
		Guard:    guard,
		Store:    vectors,
		Logger:   logger,
	})

	a.teardown = services.NewTeardownOrchestrator(services.TeardownOrchestratorConfig{
		Tenants:  tenants,
		Queue:    a.queue,
		Guard:    guard,
		Store:    vectors,
		LockWait: cfg.Reindex.LockWait,
		Logger:   logger,
	})

	return a, nil
}

func newAuthService(cfg *config.Config) driving.AuthService {
	return services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
}

func (a *app) distributedLock() driven.DistributedLock {
	switch a.cfg.Reindex.LockBackend {
	case config.LockBackendRedis:
		a.logger.Info("using redis tenant lock")
		return redisadapter.NewLock(a.redis)
	case config.LockBackendPostgres:
		a.logger.Info("using postgres advisory tenant lock")
		return postgres.NewAdvisoryLock(a.db)
	default:
		a.logger.Warn("no distributed tenant lock, reindex exclusion is per process only")
		return nil
	}
}

// readinessChecks are the dependencies probed by /ready.
func (a *app) readinessChecks() []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{
		{Name: "database", Pinger: a.db},
		{Name: "vector_store", Pinger: httpserver.PingFunc(a.vectors.HealthCheck)},
	}
	if a.queue != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "task_queue", Pinger: a.queue})
	}
	return checks
}

// Close releases every connection that was opened.
func (a *app) Close() error {
	var errs []error
	if a.vectors != nil {
		errs = append(errs, a.vectors.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
