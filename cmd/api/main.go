package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tsunagari/backend/internal/config"
	"github.com/tsunagari/backend/internal/db"
	"github.com/tsunagari/backend/internal/feed"
	firebaseutil "github.com/tsunagari/backend/internal/firebase"
	"github.com/tsunagari/backend/internal/handlers"
	"github.com/tsunagari/backend/internal/images"
	"github.com/tsunagari/backend/internal/live"
	"github.com/tsunagari/backend/internal/middleware"
	"github.com/tsunagari/backend/internal/social"
	"github.com/tsunagari/backend/internal/store"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	cfg := config.Load()

	// Initialize Firebase
	firebaseApp, err := firebaseutil.InitFirebase()
	if err != nil {
		logger.Fatalw("failed to initialize Firebase", "error", err)
	}

	firestoreClient, err := firebaseutil.GetFirestoreClient(firebaseApp)
	if err != nil {
		logger.Fatalw("failed to initialize Firestore", "error", err)
	}
	defer firestoreClient.Close()

	// Initialize Redis
	redisClient, err := db.InitRedis()
	if err != nil {
		logger.Fatalw("failed to initialize Redis", "error", err)
	}
	defer redisClient.Close()

	// Stores and domain services
	profiles := store.NewFirestoreProfiles(firestoreClient, logger)
	entries := store.NewFirestoreEntries(firestoreClient, logger)
	controller := social.NewController(profiles, logger)
	aggregator := feed.NewAggregator(entries, logger)
	imageClient := images.NewClient(cfg.ImgurClientID)
	hub := live.NewHub(logger, cfg.SessionIdleTimeout)

	// Sweep idle live sessions on a schedule
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 5m", hub.SweepIdle); err != nil {
		logger.Fatalw("failed to schedule idle sweep", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// CORS for browser clients
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(firebaseApp, profiles, redisClient, logger)
	usersHandler := handlers.NewUsersHandler(controller, profiles, redisClient, logger, cfg.CacheTTL)
	entryHandler := handlers.NewEntryHandler(entries, profiles, aggregator, imageClient, redisClient, logger, cfg.CacheTTL)
	streamHandler := handlers.NewStreamHandler(firebaseApp, profiles, entries, aggregator, hub, logger)

	authRequired := middleware.AuthMiddleware(firebaseApp, redisClient)

	// Define routes
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		users := v1.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/search", usersHandler.SearchUsers)
		}

		friends := v1.Group("/friends")
		friends.Use(authRequired)
		{
			friends.GET("", usersHandler.ListFriends)
			friends.GET("/requests", usersHandler.ListFriendRequests)
			friends.POST("/request", usersHandler.SendFriendRequest)
			friends.POST("/respond", usersHandler.RespondFriendRequest)
		}

		entriesGroup := v1.Group("/entries")
		entriesGroup.Use(authRequired)
		{
			entriesGroup.POST("", entryHandler.CreateEntry)
			entriesGroup.POST("/update", entryHandler.UpdateEntry)
			entriesGroup.POST("/delete", entryHandler.DeleteEntry)
			entriesGroup.POST("/like", entryHandler.ToggleLike)
			entriesGroup.GET("/comments", entryHandler.ListComments)
			entriesGroup.POST("/comments", entryHandler.AddComment)
			entriesGroup.POST("/comments/delete", entryHandler.DeleteComment)
		}

		v1.GET("/feed", authRequired, entryHandler.Feed)

		// WebSocket auth rides a token query param, not the middleware
		v1.GET("/ws", streamHandler.Stream)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infow("server starting", "address", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("shutting down server")

	hub.CloseAll()

	// Give a 5 second timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("server forced to shutdown", "error", err)
	}

	logger.Infow("server exited")
}
