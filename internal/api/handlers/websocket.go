package handlers

import (
	"log"
	"net/http"
	"strings"

	"fleet-console/internal/websocket"
	"fleet-console/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebSocketHandler upgrades dashboard browsers onto the live update feed.
type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket authenticates and upgrades a connection, then registers it
// with the hub. Browsers cannot set headers on websocket dials, so the token
// is accepted as a query parameter too.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
		return
	}

	jwtUtil := jwt.NewJWTUtil()
	claims, err := jwtUtil.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket connection rejected: invalid token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	clientID := uuid.New().String()

	filters := websocket.Filters{
		Kinds:      c.QueryArray("kinds"),
		DriverIDs:  c.QueryArray("driverIds"),
		AlertTypes: c.QueryArray("alertTypes"),
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	if err := h.hub.RegisterClient(clientID, conn, filters); err != nil {
		log.Printf("Failed to register WebSocket client: %v", err)
		conn.Close()
		return
	}

	log.Printf("WebSocket client %s connected (operator %s)", clientID, claims.Username)
}

// GetConnectedClients reports hub statistics
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.hub.ConnectedClients(),
		"stats":            h.hub.Stats(),
	})
}
