package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"fleet-console/internal/models"

	"github.com/gorilla/websocket"
)

// Hub fans live console events out to connected dashboard browsers: SOS
// alerts from the reconciler and vehicle positions from the movement feed.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Update
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
}

// NewHub creates a hub.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Update, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// Start begins the hub's main loop.
func (h *Hub) Start() error {
	go h.run()
	log.Println("Dashboard websocket hub started")
	return nil
}

// Stop shuts the hub down and closes every client connection.
func (h *Hub) Stop() error {
	close(h.done)

	h.mutex.Lock()
	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[string]*Client)
	h.mutex.Unlock()

	log.Println("Dashboard websocket hub stopped")
	return nil
}

func (h *Hub) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			log.Printf("Dashboard client %s connected", client.ID)
			go h.handleClient(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				if client.Conn != nil {
					client.Conn.Close()
				}
			}
			h.mutex.Unlock()
			log.Printf("Dashboard client %s disconnected", client.ID)

		case update := <-h.broadcast:
			h.broadcastToClients(update)

		case <-ticker.C:
			h.healthCheck()

		case <-h.done:
			return
		}
	}
}

// NotifyAlert implements the reconciler's Notifier: each distinct new SOS
// alert reaches every subscribed dashboard exactly once.
func (h *Hub) NotifyAlert(alert models.Alert) {
	h.publish(Update{
		Kind:      KindSosAlert,
		Data:      alert,
		Timestamp: time.Now(),
	})
}

// BroadcastPosition pushes a vehicle position sample to dashboards.
func (h *Hub) BroadcastPosition(pos models.VehiclePosition) {
	h.publish(Update{
		Kind:      KindVehiclePosition,
		Data:      pos,
		Timestamp: time.Now(),
	})
}

func (h *Hub) publish(update Update) {
	select {
	case h.broadcast <- update:
	default:
		log.Printf("Broadcast channel full, dropping %s update", update.Kind)
	}
}

// RegisterClient attaches an upgraded websocket connection to the hub.
func (h *Hub) RegisterClient(clientID string, conn *websocket.Conn, filters Filters) error {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Filters:  filters,
		Send:     make(chan Update, 64),
		LastPing: time.Now(),
		IsActive: true,
	}

	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return fmt.Errorf("hub is stopped")
	}
}

// ConnectedClients returns the number of connected clients.
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Stats returns detailed client statistics.
func (h *Hub) Stats() HubStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats := HubStats{TotalClients: len(h.clients)}
	for _, client := range h.clients {
		if client.IsActive {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}
	return stats
}

// Upgrader exposes the websocket upgrader for the HTTP handler.
func (h *Hub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

func (h *Hub) broadcastToClients(update Update) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, client := range h.clients {
		if !shouldSend(client.Filters, update) {
			continue
		}
		select {
		case client.Send <- update:
		default:
			client.IsActive = false
			log.Printf("Dashboard client %s send buffer full, marking inactive", client.ID)
		}
	}
}

// shouldSend applies a client's filters to an update.
func shouldSend(filters Filters, update Update) bool {
	if len(filters.Kinds) > 0 && !contains(filters.Kinds, update.Kind) {
		return false
	}

	switch data := update.Data.(type) {
	case models.Alert:
		if len(filters.AlertTypes) > 0 && !contains(filters.AlertTypes, data.Type) {
			return false
		}
		if len(filters.DriverIDs) > 0 && !contains(filters.DriverIDs, data.DriverID) {
			return false
		}
	case models.VehiclePosition:
		if len(filters.DriverIDs) > 0 && data.DriverID != "" && !contains(filters.DriverIDs, data.DriverID) {
			return false
		}
	}

	return true
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// handleClient reads incoming messages (pings and filter updates) until the
// connection drops.
func (h *Hub) handleClient(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.LastPing = time.Now()
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.writeMessages(client)

	for {
		var message map[string]interface{}
		if err := client.Conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Dashboard client %s read error: %v", client.ID, err)
			}
			return
		}

		if msgType, ok := message["type"].(string); ok && msgType == "update_filters" {
			if filtersData, ok := message["filters"]; ok {
				filtersJSON, _ := json.Marshal(filtersData)
				var newFilters Filters
				if err := json.Unmarshal(filtersJSON, &newFilters); err == nil {
					client.Filters = newFilters
					log.Printf("Updated filters for dashboard client %s", client.ID)
				}
			}
		}
	}
}

func (h *Hub) writeMessages(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(update); err != nil {
				log.Printf("Error writing to dashboard client %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// healthCheck drops clients that stopped answering pings.
func (h *Hub) healthCheck() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	now := time.Now()
	for clientID, client := range h.clients {
		if now.Sub(client.LastPing) > 90*time.Second {
			log.Printf("Dashboard client %s timed out, removing", clientID)
			delete(h.clients, clientID)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}
