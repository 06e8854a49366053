package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAlertCamelCaseDriverID(t *testing.T) {
	raw := []byte(`{"id":"A1","driverId":"D9","type":"SOS_BUTTON","latitude":28.61,"longitude":77.21,"timestamp":"2024-01-01T00:00:00Z"}`)

	alert, err := DecodeAlert(raw)
	require.NoError(t, err)

	assert.Equal(t, "A1", alert.ID)
	assert.Equal(t, "D9", alert.DriverID)
	assert.Equal(t, AlertTypeSosButton, alert.Type)
	assert.Equal(t, 28.61, alert.Latitude)
	assert.Equal(t, 77.21, alert.Longitude)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), alert.Timestamp)
	assert.Equal(t, AlertStatusActive, alert.Status)
}

func TestDecodeAlertSnakeCaseDriverID(t *testing.T) {
	raw := []byte(`{"id":"A2","driver_id":"D4","type":"CRASH","latitude":1,"longitude":2,"timestamp":"2024-03-05T10:30:00Z"}`)

	alert, err := DecodeAlert(raw)
	require.NoError(t, err)

	assert.Equal(t, "D4", alert.DriverID)
}

func TestDecodeAlertCamelCaseWinsWhenBothPresent(t *testing.T) {
	raw := []byte(`{"id":"A3","driverId":"CAMEL","driver_id":"SNAKE","type":"SOS_BUTTON"}`)

	alert, err := DecodeAlert(raw)
	require.NoError(t, err)

	assert.Equal(t, "CAMEL", alert.DriverID)
}

func TestDecodeAlertNumericID(t *testing.T) {
	raw := []byte(`{"id":42,"driverId":"D1","type":"OVERSPEED"}`)

	alert, err := DecodeAlert(raw)
	require.NoError(t, err)

	assert.Equal(t, "42", alert.ID)
}

func TestDecodeAlertEpochTimestamps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch seconds", `{"id":"A1","timestamp":1704067200}`, time.Unix(1704067200, 0)},
		{"epoch millis", `{"id":"A1","timestamp":1704067200000}`, time.UnixMilli(1704067200000)},
		{"epoch string", `{"id":"A1","timestamp":"1704067200"}`, time.Unix(1704067200, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, err := DecodeAlert([]byte(tt.raw))
			require.NoError(t, err)
			assert.True(t, alert.Timestamp.Equal(tt.want))
		})
	}
}

func TestDecodeAlertUnknownTypeTolerated(t *testing.T) {
	raw := []byte(`{"id":"A5","driverId":"D1","type":"BATTERY_LOW"}`)

	alert, err := DecodeAlert(raw)
	require.NoError(t, err)

	assert.Equal(t, "BATTERY_LOW", alert.Type)
}

func TestDecodeAlertMissingID(t *testing.T) {
	_, err := DecodeAlert([]byte(`{"driverId":"D1","type":"CRASH"}`))
	assert.Error(t, err)
}

func TestDecodeAlertMalformedPayload(t *testing.T) {
	_, err := DecodeAlert([]byte(`not-json`))
	assert.Error(t, err)
}

func TestDecodeAlerts(t *testing.T) {
	raw := []byte(`[{"id":"A1","driver_id":"D1","type":"CRASH"},{"id":"A2","driverId":"D2","type":"GEOFENCE","status":"RESOLVED"}]`)

	alerts, err := DecodeAlerts(raw)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "D1", alerts[0].DriverID)
	assert.Equal(t, AlertStatusResolved, alerts[1].Status)
}
