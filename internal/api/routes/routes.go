package routes

import (
	"fleet-console/internal/api/handlers"
	"fleet-console/internal/api/middleware"
	"fleet-console/internal/reconciler"
	"fleet-console/internal/repository"
	"fleet-console/internal/services"
	"fleet-console/internal/upstream"
	"fleet-console/internal/websocket"
	"fleet-console/pkg/ratelimit"
	"fleet-console/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies carries the long-lived components the route handlers wrap.
// They are constructed in main so their lifecycles outlive any one request.
type Dependencies struct {
	DB        *mongo.Database
	Cache     *redis.Client
	Upstream  *upstream.Client
	Recon     *reconciler.Reconciler
	Hub       *websocket.Hub
	Dashboard *services.DashboardService
	Tracking  *services.TrackingService
	Limiter   ratelimit.RateLimiter
	LimitCfg  *ratelimit.Config
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Repositories and services built on local storage
	operatorRepo := repository.NewOperatorRepository(deps.DB)
	archiveRepo := repository.NewArchiveRepository(deps.DB)
	authService := services.NewAuthService(operatorRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	sosHandler := handlers.NewSosHandler(deps.Recon, archiveRepo)
	driverHandler := handlers.NewDriverHandler(deps.Upstream)
	vehicleHandler := handlers.NewVehicleHandler(deps.Upstream, deps.Tracking)
	fareHandler := handlers.NewFareHandler(deps.Upstream)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache, deps.Upstream, deps.Recon, deps.Hub)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(deps.Limiter, deps.LimitCfg))

	// Public routes
	api.GET("/health", healthHandler.GetHealth)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// WebSocket endpoint authenticates via token query parameter
	api.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)

		sos := protected.Group("/sos")
		{
			sos.GET("/alerts", sosHandler.GetHistory)
			sos.GET("/alerts/active", sosHandler.GetActive)
			sos.GET("/status", sosHandler.GetStatus)
			sos.PUT("/alerts/:id/acknowledge", sosHandler.AcknowledgeAlert)
			sos.POST("/alert", sosHandler.SendTestAlert)
			sos.POST("/refresh", sosHandler.RefreshAlerts)
			sos.GET("/archive", sosHandler.GetArchive)
			sos.GET("/archive/driver/:driverId", sosHandler.GetArchiveByDriver)
		}

		drivers := protected.Group("/drivers")
		{
			drivers.GET("", driverHandler.GetDrivers)
			drivers.POST("", driverHandler.CreateDriver)
			drivers.GET("/search", driverHandler.SearchDrivers)
			drivers.GET("/validate/phone", driverHandler.ValidatePhone)
			drivers.GET("/:id", driverHandler.GetDriver)
			drivers.PUT("/:id", driverHandler.UpdateDriver)
			drivers.DELETE("/:id", driverHandler.DeleteDriver)
		}

		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.GetVehicles)
			vehicles.GET("/positions", vehicleHandler.GetPositions)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.POST("/assign/:driverId", vehicleHandler.AssignVehicle)
			vehicles.DELETE("/:id", vehicleHandler.DeleteVehicle)
		}

		fares := protected.Group("/fares")
		{
			fares.GET("/rate", fareHandler.GetFareRate)
			fares.POST("/rate", middleware.RequireRole("admin"), fareHandler.UpdateFareRate)
			fares.GET("/recent", fareHandler.GetRecentRides)
			fares.GET("/driver/:driverId", fareHandler.GetRidesByDriver)
			fares.POST("", fareHandler.SubmitRide)
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/summary", dashboardHandler.GetSummary)
			dashboard.POST("/summary/refresh", dashboardHandler.RefreshSummary)
		}

		protected.GET("/ws/clients", wsHandler.GetConnectedClients)
	}
}
