package handlers

import (
	"context"
	"net/http"
	"time"

	"fleet-console/internal/reconciler"
	"fleet-console/internal/upstream"
	"fleet-console/internal/websocket"
	"fleet-console/pkg/database"
	"fleet-console/pkg/redis"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	db       *mongo.Database
	cache    *redis.Client
	upstream *upstream.Client
	recon    *reconciler.Reconciler
	hub      *websocket.Hub
	start    time.Time
}

func NewHealthHandler(db *mongo.Database, cache *redis.Client, up *upstream.Client, recon *reconciler.Reconciler, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{
		db:       db,
		cache:    cache,
		upstream: up,
		recon:    recon,
		hub:      hub,
		start:    time.Now(),
	}
}

// GetHealth reports the status of every console dependency. The console is
// degraded, not down, when Redis or the live feed is unavailable; only a
// MongoDB failure flips the overall status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}

	if err := database.Health(h.db); err != nil {
		status = "unhealthy"
		checks["mongodb"] = gin.H{"status": "down", "error": err.Error()}
	} else {
		checks["mongodb"] = gin.H{"status": "up"}
	}

	redisStatus := h.cache.HealthCheck()
	if redisStatus.IsConnected {
		checks["redis"] = gin.H{"status": "up", "responseTime": redisStatus.ResponseTime.String()}
	} else {
		checks["redis"] = gin.H{"status": "down", "error": redisStatus.Error}
	}

	upstreamCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.upstream.Ping(upstreamCtx); err != nil {
		checks["upstream"] = gin.H{"status": "down", "error": err.Error()}
	} else {
		checks["upstream"] = gin.H{"status": "up"}
	}

	checks["liveFeed"] = gin.H{
		"state":        h.recon.ConnectionState(),
		"activeAlerts": h.recon.ActiveCount(),
	}
	checks["websocket"] = gin.H{
		"connectedClients": h.hub.ConnectedClients(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	utils.SuccessResponse(c, code, "Health check completed", gin.H{
		"status": status,
		"uptime": time.Since(h.start).String(),
		"checks": checks,
	})
}
