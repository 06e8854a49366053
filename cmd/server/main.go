package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-console/internal/api/routes"
	"fleet-console/internal/config"
	"fleet-console/internal/push"
	"fleet-console/internal/reconciler"
	"fleet-console/internal/repository"
	"fleet-console/internal/services"
	"fleet-console/internal/upstream"
	"fleet-console/internal/websocket"
	"fleet-console/pkg/cleanup"
	"fleet-console/pkg/database"
	"fleet-console/pkg/ratelimit"
	"fleet-console/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// Seed the bootstrap operator account if configured
	authService := services.NewAuthService(repository.NewOperatorRepository(db))
	if err := authService.EnsureDefaultAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Printf("Failed to seed default admin: %v", err)
	}

	// Dashboard fan-out hub
	hub := websocket.NewHub(nil)
	if err := hub.Start(); err != nil {
		log.Fatal("Failed to start websocket hub:", err)
	}
	defer hub.Stop()

	// Upstream fleet backend client and live alert feed
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.RequestTimeout)
	subscriber := push.NewSubscriber(cfg.SosWSURL, cfg.ReconnectDelay)
	archive := repository.NewArchiveRepository(db)

	recon := reconciler.New(client, subscriber, hub, archive)

	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	if err := recon.Initialize(initCtx); err != nil {
		log.Printf("Alert reconciler initialization: %v", err)
	}
	initCancel()
	defer recon.Close()

	// Background aggregation and optional simulated movement
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	dashboard := services.NewDashboardService(client, recon, redisClient.GetClient(), cfg.SummaryRefreshInterval)
	go dashboard.Run(bgCtx)

	var tracking *services.TrackingService
	if cfg.SimulateMovement {
		tracking = services.NewTrackingService(client, hub)
		go tracking.Run(bgCtx)
	}

	// Archive retention pruning
	cleanupService := cleanup.NewCleanupService(archive, cfg.ArchiveRetention, cfg.CleanupInterval)
	go cleanupService.Start()
	defer cleanupService.Stop()

	// Rate limiter backed by Redis when available
	limitCfg := ratelimit.DefaultConfig()
	var limiter ratelimit.RateLimiter
	if redisClient.IsConnected() {
		limiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), limitCfg)
	} else {
		limiter = ratelimit.NewMemoryRateLimiter(limitCfg)
		log.Println("Using in-memory rate limiter")
	}

	// Setup Gin router
	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		DB:        db,
		Cache:     redisClient,
		Upstream:  client,
		Recon:     recon,
		Hub:       hub,
		Dashboard: dashboard,
		Tracking:  tracking,
		Limiter:   limiter,
		LimitCfg:  limitCfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	// Shut down cleanly on SIGINT/SIGTERM: stop accepting requests first,
	// then let the deferred teardown stop the background feeds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
