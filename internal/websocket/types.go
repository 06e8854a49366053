package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Update kinds pushed to dashboard clients.
const (
	KindSosAlert        = "sos_alert"
	KindVehiclePosition = "vehicle_position"
)

// Update is one message fanned out to dashboard clients.
type Update struct {
	Kind      string      `json:"kind"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Filters lets a dashboard client narrow what it receives. Empty filters
// mean everything.
type Filters struct {
	Kinds      []string `json:"kinds,omitempty"`
	DriverIDs  []string `json:"driverIds,omitempty"`
	AlertTypes []string `json:"alertTypes,omitempty"`
}

// Client represents one connected dashboard browser.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  Filters
	Send     chan Update
	LastPing time.Time
	IsActive bool
}

// HubStats provides statistics about connected clients.
type HubStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}
