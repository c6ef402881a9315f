// Package main is the entry point for the board background worker. It
// relays outbox events (blob cleanup after cascades) and flushes
// accumulated view counts into Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/enxxi/v-board/internal/config"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/infrastructure/blob"
	"github.com/enxxi/v-board/internal/infrastructure/cache"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres/board_repo"
	"github.com/enxxi/v-board/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting vboard worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	blobStore, err := blob.NewFSStore(cfg.BlobRoot, cfg.BlobBaseURL)
	if err != nil {
		log.Fatalw("failed to initialize blob storage", "error", err)
	}

	relay := postgres.NewOutboxRelay(pool, cfg.OutboxBatchSize, blob.NewCleanupHandler(blobStore))

	redisCache := cache.New(ctx, cfg.RedisAddr)
	defer redisCache.Close()
	viewCounter := cache.NewViewCounter(redisCache)

	postRepo := board_repo.NewPostRepo(txManager)
	postCache := cache.NewPostCache(redisCache)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runOutboxRelay(ctx, relay, cfg.OutboxPollInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runViewFlusher(ctx, viewCounter, postRepo, postCache, cfg.ViewFlushInterval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// runOutboxRelay drains pending outbox messages on an interval. A full
// batch means there is backlog, so it polls again immediately.
func runOutboxRelay(ctx context.Context, relay *postgres.OutboxRelay, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				n, err := relay.ProcessBatch(ctx)
				if err != nil {
					logger.Error(ctx, "outbox batch failed", "error", err)
					break
				}
				if n == 0 {
					break
				}
			}
		}
	}
}

// runViewFlusher periodically writes accumulated view counts through to
// the store and drops the stale cached detail pages. A final flush runs
// on shutdown.
func runViewFlusher(ctx context.Context, counter *cache.ViewCounter, posts post.Repository, postCache *cache.PostCache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		counts, err := counter.Drain(ctx)
		if err != nil {
			logger.Error(ctx, "view counter drain failed", "error", err)
		}
		if len(counts) == 0 {
			return
		}
		for postID, n := range counts {
			if err := posts.IncrementViews(ctx, postID, n); err != nil {
				logger.Error(ctx, "view flush failed", "post_id", postID, "error", err)
				continue
			}
			postCache.InvalidateDetail(ctx, postID)
		}
		logger.Info(ctx, "view counts flushed", "posts", len(counts))
	}

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			flush(ctx)
		}
	}
}
