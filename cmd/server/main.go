package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/snapgram/backend/internal/auth"
	"github.com/snapgram/backend/internal/cache"
	"github.com/snapgram/backend/internal/chat"
	"github.com/snapgram/backend/internal/config"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/handlers"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/metrics"
	"github.com/snapgram/backend/internal/middleware"
	"github.com/snapgram/backend/internal/storage"
	"github.com/snapgram/backend/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Snapgram server starting ===",
		zap.String("environment", cfg.Environment))

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; without it the rate limiter becomes a no-op.
	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without rate limiting", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	authService := auth.NewService(cfg.JWTSecret)

	// Realtime core: registry, dispatcher and session manager.
	registry := websocket.NewRegistry()
	dispatcher := websocket.NewDispatcher(registry)
	wsHandler := websocket.NewHandler(registry)

	chatStore := chat.NewStore(database.DB)
	chatService := chat.NewService(chatStore, dispatcher)

	h := handlers.NewHandlers(authService, chatService, dispatcher)

	// S3 is optional in development; image uploads fail cleanly without it.
	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("Failed to initialize S3 uploader", zap.Error(err))
		} else {
			if err := uploader.CheckBucketAccess(context.Background()); err != nil {
				logger.Log.Warn("S3 bucket access check failed", zap.Error(err))
			}
			h.SetUploader(uploader)
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "snapgram-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	{
		user := api.Group("/user")
		{
			user.POST("/register",
				middleware.RedisRateLimitMiddleware("auth", 10, time.Minute), h.Register)
			user.POST("/login",
				middleware.RedisRateLimitMiddleware("auth", 10, time.Minute), h.Login)
			user.POST("/logout", h.Logout)

			user.GET("/:id/profile", authService.Middleware(), h.GetProfile)
			user.PATCH("/profile/edit", authService.Middleware(), h.EditProfile)
			user.GET("/suggested", authService.Middleware(), h.GetSuggestedUsers)
			user.POST("/followorunfollow/:id", authService.Middleware(), h.FollowOrUnfollow)
		}

		post := api.Group("/post")
		{
			post.Use(authService.Middleware())
			post.POST("/addpost", h.CreatePost)
			post.GET("/all", h.GetAllPosts)
			post.GET("/userpost/:id", h.GetUserPosts)
			post.GET("/:id/like", h.LikePost)
			post.GET("/:id/dislike", h.DislikePost)
			post.POST("/:id/comment", h.AddComment)
			post.GET("/:id/comment/all", h.GetComments)
			post.DELETE("/delete/:id", h.DeletePost)
			post.GET("/:id/bookmark", h.BookmarkPost)
		}

		message := api.Group("/message")
		{
			message.Use(authService.Middleware())
			message.POST("/send/:id",
				middleware.RedisRateLimitMiddleware("message_send", 30, time.Minute), h.SendMessage)
			message.GET("/all/:id", h.GetConversation)
		}

		ws := api.Group("/ws")
		{
			ws.GET("", authService.Middleware(), wsHandler.HandleConnection)
			ws.POST("/online", authService.Middleware(), wsHandler.HandleOnlineStatus)
			ws.GET("/metrics", authService.Middleware(), wsHandler.HandleMetrics)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Snapgram backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wsHandler.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
