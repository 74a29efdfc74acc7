package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fairride/internal/config"
	"fairride/internal/handlers"
	"fairride/internal/middleware"
	"fairride/internal/repositories/mongodb"
	"fairride/internal/services"
	"fairride/pkg/ai"
	"fairride/pkg/cache"
	"fairride/pkg/database"
	"fairride/pkg/logger"
	"fairride/pkg/maps"
	"fairride/pkg/websocket"
	"fairride/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFormat := "text"
	if config.IsProduction() {
		logFormat = "json"
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     logFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     config.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// External providers
	gemini, err := ai.NewGeminiClient(ctx, &ai.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: float32(cfg.AI.Temperature),
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer gemini.Close()

	var routeEstimator maps.RouteEstimator
	if cfg.Maps.GoogleMaps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			appLogger.Fatalf("Failed to initialize maps provider: %v", err)
		}
		routeEstimator = provider
	} else {
		appLogger.Warn("no maps API key configured, fare estimates use straight-line distance")
	}

	// Realtime hub
	hub := websocket.NewHub()
	go hub.Run()

	// Repositories
	rideRepo := mongodb.NewRideRepository(db, redisCache)
	driverRepo := mongodb.NewDriverRepository(db, redisCache)
	userRepo := mongodb.NewUserRepository(db, redisCache)
	reviewRepo := mongodb.NewReviewRepository(db)
	chatRepo := mongodb.NewChatRepository(db)
	sosRepo := mongodb.NewSOSRepository(db)

	// Services
	negotiationService := services.NewNegotiationService(
		cfg.Fares, cfg.Negotiation, cfg.App.Currency, routeEstimator, gemini, appLogger)
	offerService := services.NewOfferService(
		rideRepo, driverRepo, negotiationService, hub, cfg.Matching, appLogger)
	rideService := services.NewRideService(
		rideRepo, userRepo, driverRepo, chatRepo, sosRepo, redisCache,
		negotiationService, offerService, hub, appLogger)
	ratingService := services.NewRatingService(
		rideRepo, userRepo, driverRepo, reviewRepo, gemini, appLogger)

	if err := offerService.Start(ctx); err != nil {
		appLogger.Fatalf("Failed to start offer engine: %v", err)
	}

	// Handlers
	rideHandler := handlers.NewRideHandler(rideService, appLogger)
	driverHandler := handlers.NewDriverHandler(driverRepo, offerService, rideService, appLogger)
	ratingHandler := handlers.NewRatingHandler(ratingService, appLogger)
	wsHandler := handlers.NewWebSocketHandler(hub, rideService, appLogger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupRideRoutes(v1, cfg.Security.JWTSecret, rideHandler)
		routes.SetupDriverRoutes(v1, cfg.Security.JWTSecret, driverHandler)
		routes.SetupRatingRoutes(v1, cfg.Security.JWTSecret, ratingHandler)
		routes.SetupWebSocketRoutes(v1, cfg.Security.JWTSecret, wsHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting %s on port %d", cfg.App.Name, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Shutdown error: %v", err)
	}
}
