// Package main is the entry point for the bibliolab API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bibliolab/internal/config"
	"bibliolab/internal/core/security"
	"bibliolab/internal/domain/analysis"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/auth"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/domain/reading"
	"bibliolab/internal/domain/study"
	"bibliolab/internal/infrastructure/cache"
	v1 "bibliolab/internal/infrastructure/http/v1"
	"bibliolab/internal/infrastructure/http/v1/handlers"
	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/internal/infrastructure/storage/postgres/analysis_repo"
	"bibliolab/internal/infrastructure/storage/postgres/auth_repo"
	"bibliolab/internal/infrastructure/storage/postgres/entity_repo"
	"bibliolab/pkg/logger"
	"bibliolab/pkg/ratelimit"
	"bibliolab/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting bibliolab server", "env", cfg.Env)

	shutdownTracing, err := tracing.Setup(ctx, "bibliolab", cfg.Env, cfg.Tracing)
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warnw("tracing shutdown failed", "error", err)
		}
	}()

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional) ---
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Infow("redis connection established", "addr", cfg.Redis.Addr)
	}

	// --- Lifecycle recording ---
	journal, err := postgres.NewAuditJournal(txManager)
	if err != nil {
		log.Fatalw("failed to create audit journal", "error", err)
	}
	recorder := audit.Recorders{journal, postgres.NewOutboxRecorder(txManager)}

	policy, err := security.NewCELPolicy(cfg.Policy.Expression)
	if err != nil {
		log.Fatalw("invalid mutation policy", "error", err)
	}

	clock := time.Now

	// --- Repositories ---
	authorRepo := entity_repo.NewAuthorRepo(txManager)
	bookRepo := entity_repo.NewBookRepo(txManager)
	genreRepo := entity_repo.NewGenreRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Services ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.AccessTTL
	jwtService := auth.NewJWTService(jwtConfig)

	authConfig := auth.DefaultServiceConfig()
	authConfig.RefreshTokenExpiry = cfg.JWT.RefreshTTL

	var analysisCache analysis.Cache
	if rdb != nil {
		analysisCache = cache.NewAnalysisCache(rdb, cfg.Analysis.CacheTTL)
	}
	analysisService := analysis.NewService(analysis_repo.New(txManager, authorRepo, bookRepo), analysisCache, clock)

	genreService := genre.NewService(genreRepo, analysisService)
	authorService := author.NewService(authorRepo, txManager, policy, recorder)
	bookService := book.NewService(book.ServiceDeps{
		Repo:      bookRepo,
		TxManager: txManager,
		Policy:    policy,
		Recorder:  recorder,
		Genres:    genreService,
		Authors:   authorService,
		Clock:     clock,
	})

	services := v1.Services{
		Auth:        auth.NewService(userRepo, auth_repo.NewTokenRepo(txManager), txManager, recorder, jwtService, authConfig),
		Users:       auth.NewUserService(userRepo, txManager, policy, recorder),
		Authors:     authorService,
		Books:       bookService,
		Genres:      genreService,
		Experiments: experiment.NewService(entity_repo.NewExperimentRepo(txManager), txManager, policy, recorder, clock),
		People: person.NewService(person.ServiceDeps{
			Repo:      entity_repo.NewPersonRepo(txManager),
			TxManager: txManager,
			Policy:    policy,
			Recorder:  recorder,
			Clock:     clock,
		}),
		Studies:  study.NewService(entity_repo.NewStudyRepo(txManager), txManager, policy, recorder, clock),
		Reading:  reading.NewService(entity_repo.NewReadingRepo(txManager), txManager, genreService, bookService, clock),
		Analysis: analysisService,
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		ServiceName:    "bibliolab",
		Logger:         log,
		JWTValidator:   jwtService,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Clock:          clock,
		HealthChecks:   healthChecks(pool, rdb),
		Services:       services,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.AnonymousLimiter = ratelimit.PerDay(cfg.RateLimit.AnonPerDay, cfg.RateLimit.MaxTracked)
		routerCfg.UserLimiter = ratelimit.PerDay(cfg.RateLimit.UserPerDay, cfg.RateLimit.MaxTracked)
	}
	router, err := v1.NewRouter(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	go logPoolStats(ctx, pool)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func healthChecks(pool *postgres.Pool, rdb *redis.Client) map[string]handlers.Check {
	checks := map[string]handlers.Check{
		"database": pool.Ready,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
