// Package main is the entry point for the bibliolab background worker.
// It relays the outbox, drops stale caches and cleans up expired sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bibliolab/internal/config"
	"bibliolab/internal/infrastructure/cache"
	"bibliolab/internal/infrastructure/events"
	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/internal/infrastructure/storage/postgres/auth_repo"
	"bibliolab/pkg/logger"
	"bibliolab/pkg/tracing"
)

const (
	cleanupInterval  = time.Hour
	publishedMaxAge  = 7 * 24 * time.Hour
	expiredTokensAge = 24 * time.Hour
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
	log = log.WithComponent("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting bibliolab worker")

	shutdownTracing, err := tracing.Setup(ctx, "bibliolab-worker", cfg.Env, cfg.Tracing)
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txManager := postgres.NewTxManager(pool)

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}

	var handler postgres.OutboxHandler
	if rdb != nil {
		defer rdb.Close()
		handler = events.Chain(
			events.InvalidateOn(cache.NewAnalysisCache(rdb, cfg.Analysis.CacheTTL), "book", "author"),
			events.NewRedisPublisher(rdb, cfg.Worker.Channel),
		)
	} else {
		log.Warn("redis not configured; outbox messages are only logged")
		handler = postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			logger.Debug(ctx, "outbox message", "event", msg.EventType, "aggregate_id", msg.AggregateID)
			return nil
		})
	}

	w := &worker{
		relay:        postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize, handler),
		tokens:       auth_repo.NewTokenRepo(txManager),
		pollInterval: cfg.Worker.PollInterval,
		log:          log,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.relayLoop(gctx) })
	g.Go(func() error { return w.cleanupLoop(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

type worker struct {
	relay        *postgres.OutboxRelay
	tokens       *auth_repo.TokenRepo
	pollInterval time.Duration
	log          *logger.Logger
}

func (w *worker) relayLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.relay.ProcessBatch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if n > 0 {
				w.log.Debugw("relayed outbox batch", "count", n)
			}
		}
	}
}

func (w *worker) cleanupLoop(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *worker) cleanup(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := w.tokens.CleanupExpiredTokens(ctx, now.Add(-expiredTokensAge)); err != nil {
		w.log.Errorw("token cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, now.Add(-publishedMaxAge)); err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}
