// Package main is the entry point for the board API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enxxi/v-board/internal/config"
	"github.com/enxxi/v-board/internal/domain/auth"
	"github.com/enxxi/v-board/internal/domain/cascade"
	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/domain/comment"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/internal/infrastructure/blob"
	"github.com/enxxi/v-board/internal/infrastructure/cache"
	v1 "github.com/enxxi/v-board/internal/infrastructure/http/v1"
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

	ctx := context.Background()
	log.Info("starting vboard server")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	userRepo := board_repo.NewUserRepo(txManager)
	categoryRepo := board_repo.NewCategoryRepo(txManager)
	postRepo := board_repo.NewPostRepo(txManager)
	commentRepo := board_repo.NewCommentRepo(txManager)
	attachmentRepo := board_repo.NewAttachmentRepo(txManager)

	// --- Cascade engine ---
	cascadeStore := board_repo.NewCascadeStore(txManager)
	outboxPublisher := postgres.NewOutboxPublisher(txManager)
	auditor, err := postgres.NewCascadeAuditor(txManager)
	if err != nil {
		log.Fatalw("failed to create cascade auditor", "error", err)
	}

	engine := cascade.NewEngine(cascadeStore, txManager,
		cascade.WithNotifier(postgres.NewOutboxNotifier(outboxPublisher)),
		cascade.WithRecorder(auditor),
	)

	// --- Blob storage ---
	blobStore, err := blob.NewFSStore(cfg.BlobRoot, cfg.BlobBaseURL)
	if err != nil {
		log.Fatalw("failed to initialize blob storage", "error", err)
	}

	// --- Cache ---
	redisCache := cache.New(ctx, cfg.RedisAddr)
	defer redisCache.Close()

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.AccessTokenTTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Services ---
	authConfig := auth.DefaultServiceConfig()
	authConfig.RefreshTokenExpiry = cfg.RefreshTokenTTL
	authService := auth.NewService(userRepo, txManager, jwtService, authConfig)

	userService := user.NewService(userRepo, engine)
	categoryService := category.NewService(categoryRepo, txManager)
	commentService := comment.NewService(commentRepo, postRepo, txManager, engine)
	postService := post.NewService(
		postRepo, categoryRepo, attachmentRepo, blobStore, txManager, engine,
		post.WithCache(cache.NewPostCache(redisCache)),
		post.WithViewCounter(cache.NewViewCounter(redisCache)),
	)

	if err := categoryService.Seed(ctx); err != nil {
		log.Fatalw("failed to seed categories", "error", err)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		JWTValidator:    jwtService,
		AuthService:     authService,
		UserService:     userService,
		PostService:     postService,
		CommentService:  commentService,
		CategoryService: categoryService,
		StaticDir:       cfg.BlobRoot,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
