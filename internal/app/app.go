package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/attempt"
	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/config"
	"github.com/gokatarajesh/talentquiz/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/talentquiz/internal/db/sqlc"
	"github.com/gokatarajesh/talentquiz/internal/generation"
	"github.com/gokatarajesh/talentquiz/internal/logging"
	"github.com/gokatarajesh/talentquiz/internal/metrics"
	"github.com/gokatarajesh/talentquiz/internal/server"
	"github.com/gokatarajesh/talentquiz/internal/store"
	"github.com/gokatarajesh/talentquiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	attempts  *attempt.Manager
	reaper    *attempt.Reaper
	genWorker *generation.Worker
	bgCancels []context.CancelFunc
}

// New bootstraps the logger, storage backends, services and HTTP server.
// APP_ENV=test or STORAGE_BACKEND=memory runs without Redis or Postgres.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := make(map[string]server.Pinger)

	var (
		kv          store.Store
		redisClient *redis.Client
	)
	if cfg.InMemory() {
		kv = store.NewMemoryStore()
		logger.Warn().Msg("using in-memory store; tests and questions are lost on restart")
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		rs := store.NewRedisStore(redisClient, cfg.Storage.Prefix, cfg.Storage.TTL)
		deps["redis"] = rs.Ping
		kv = rs
	}

	var (
		pool *pgxpool.Pool
		subs attempt.SubmissionStore
	)
	if cfg.PersistenceEnabled() {
		var err error
		pool, err = pgxpool.New(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		deps["postgres"] = pool.Ping
		subs = repository.NewSubmissionRepository(sqlcgen.New(pool))
	} else {
		logger.Warn().Msg("submission persistence disabled; results live in memory only")
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret: []byte(cfg.Security.JWTSecret),
		AccessTTL:    cfg.Security.AccessTTL,
		Issuer:       cfg.Security.Issuer,
	})

	tests := catalog.NewService(kv, logger)

	completer := generation.NewClient(generation.ClientConfig{
		BaseURL:     cfg.Generation.BaseURL,
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		Timeout:     cfg.Generation.Timeout,
	}, logger)
	genSvc := generation.NewService(completer, kv, tests, m, generation.ServiceOptions{
		DefaultCount: cfg.Generation.DefaultCount,
		DefaultLevel: cfg.Generation.DefaultLevel,
	}, logger)
	genWorker := generation.NewWorker(genSvc, cfg.Generation.QueueSize, cfg.Generation.Timeout, logger)
	if cfg.Generation.APIKey == "" {
		logger.Warn().Msg("GENERATION_API_KEY not set; completion requests will be unauthenticated")
	}

	hub := ws.NewHub(logger)
	attempts := attempt.NewManager(tests, subs, hub, m, attempt.ManagerOptions{
		TickInterval:   cfg.Assessment.TickInterval,
		PersistTimeout: cfg.Assessment.PersistTimeout,
	}, logger)
	reaper := attempt.NewReaper(attempts, cfg.Assessment.ReaperInterval, cfg.Assessment.Retention, logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Handlers{
		Tokens:       tokens,
		Catalog:      catalog.NewHTTPHandlers(tests, logger),
		Generation:   generation.NewHTTPHandlers(genSvc, genWorker, logger),
		Attempts:     attempt.NewHTTPHandlers(attempts, catalog.NewValidator(), logger),
		AttemptWS:    attempt.NewWSHandler(attempts, hub, cfg.CORS.AllowedOrigins, logger),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Dependencies: deps,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		attempts:  attempts,
		reaper:    reaper,
		genWorker: genWorker,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.genWorker.Stop()
	a.attempts.Close()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	go a.genWorker.Run()

	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.reaper.Run(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("attempt reaper stopped")
		}
	}()
}
