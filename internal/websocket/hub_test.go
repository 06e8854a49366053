package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleet-console/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
}

func TestHubStartStop(t *testing.T) {
	hub := NewHub(nil)

	err := hub.Start()
	assert.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	err = hub.Stop()
	assert.NoError(t, err)
}

func TestRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Start())
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Upgrader().Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = hub.RegisterClient("test-client", conn, Filters{})
		assert.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, hub.ConnectedClients())
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)
}

func TestNotifyAlertReachesClient(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Start())
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Upgrader().Upgrade(w, r, nil)
		require.NoError(t, err)
		require.NoError(t, hub.RegisterClient("alert-client", conn, Filters{}))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	hub.NotifyAlert(models.Alert{
		ID:       "A1",
		DriverID: "D9",
		Type:     models.AlertTypeSosButton,
		Status:   models.AlertStatusActive,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Update
	require.NoError(t, conn.ReadJSON(&received))

	assert.Equal(t, KindSosAlert, received.Kind)
	data, ok := received.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A1", data["id"])
	assert.Equal(t, "D9", data["driverId"])
}

func TestBroadcastPositionQueued(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastPosition(models.VehiclePosition{
		VehicleID: "V1",
		Latitude:  28.61,
		Longitude: 77.21,
		Speed:     32,
	})

	select {
	case update := <-hub.broadcast:
		assert.Equal(t, KindVehiclePosition, update.Kind)
		pos, ok := update.Data.(models.VehiclePosition)
		require.True(t, ok)
		assert.Equal(t, "V1", pos.VehicleID)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("position update never queued")
	}
}

func TestShouldSendKindFilter(t *testing.T) {
	update := Update{Kind: KindVehiclePosition, Data: models.VehiclePosition{VehicleID: "V1"}}

	assert.True(t, shouldSend(Filters{}, update))
	assert.True(t, shouldSend(Filters{Kinds: []string{KindVehiclePosition}}, update))
	assert.False(t, shouldSend(Filters{Kinds: []string{KindSosAlert}}, update))
}

func TestShouldSendAlertFilters(t *testing.T) {
	update := Update{
		Kind: KindSosAlert,
		Data: models.Alert{ID: "A1", DriverID: "D1", Type: models.AlertTypeCrash},
	}

	assert.True(t, shouldSend(Filters{AlertTypes: []string{models.AlertTypeCrash}}, update))
	assert.False(t, shouldSend(Filters{AlertTypes: []string{models.AlertTypeGeofence}}, update))
	assert.True(t, shouldSend(Filters{DriverIDs: []string{"D1"}}, update))
	assert.False(t, shouldSend(Filters{DriverIDs: []string{"D2"}}, update))
}

func TestHubStats(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Start())
	defer hub.Stop()

	stats := hub.Stats()
	assert.Equal(t, 0, stats.TotalClients)
}
