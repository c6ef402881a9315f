// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/enxxi/v-board/internal/domain/auth"
	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/domain/comment"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/handlers"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/middleware"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
	"github.com/enxxi/v-board/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService     *auth.Service
	UserService     *user.Service
	PostService     *post.Service
	CommentService  *comment.Service
	CategoryService *category.Service

	// StaticDir, when set, serves uploaded attachment blobs.
	StaticDir string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	userHandler := handlers.NewUserHandler(cfg.UserService)
	postHandler := handlers.NewPostHandler(cfg.PostService)
	commentHandler := handlers.NewCommentHandler(cfg.CommentService)
	categoryHandler := handlers.NewCategoryHandler(cfg.CategoryService)

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", middleware.Auth(cfg.JWTValidator), authHandler.Logout)
		}

		// Reads are public; an optional token enriches logs and lets
		// admins see through their own lens.
		public := api.Group("")
		public.Use(middleware.OptionalAuth(cfg.JWTValidator))
		{
			public.GET("/categories", categoryHandler.List)
			public.GET("/posts", postHandler.List)
			public.GET("/posts/:id", postHandler.Get)
			public.GET("/posts/:id/comments", commentHandler.ListByPost)
			public.GET("/users/:id", userHandler.Get)
		}

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		{
			protected.POST("/posts", postHandler.Create)
			protected.PUT("/posts/:id", postHandler.Update)
			protected.DELETE("/posts/:id", postHandler.Delete)

			protected.POST("/posts/:id/comments", commentHandler.Create)
			protected.PUT("/comments/:id", commentHandler.Update)
			protected.DELETE("/comments/:id", commentHandler.Delete)

			protected.GET("/users/me", userHandler.Me)
			protected.DELETE("/users/:id", userHandler.Delete)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/users/:id/promote", authHandler.Promote)
			}
		}
	}

	return router
}
