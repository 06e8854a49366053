package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Alert statuses as reported by the upstream SOS service.
const (
	AlertStatusActive   = "ACTIVE"
	AlertStatusResolved = "RESOLVED"
)

// Known alert types. The set is open: unknown values coming from the
// backend are kept as-is and rendered generically by clients.
const (
	AlertTypeCrash     = "CRASH"
	AlertTypeSosButton = "SOS_BUTTON"
	AlertTypeGeofence  = "GEOFENCE"
	AlertTypeOverspeed = "OVERSPEED"
)

// Alert is one emergency/anomaly event tied to a driver, location and time.
type Alert struct {
	ID           string    `json:"id"`
	DriverID     string    `json:"driverId"`
	Type         string    `json:"type"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	Acknowledged bool      `json:"acknowledged"`
	Message      string    `json:"message,omitempty"`
}

// AlertSubmission is the payload accepted by the backend's alert creation
// endpoint. Used by the test-alert sender.
type AlertSubmission struct {
	Type      string  `json:"type" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	DriverID  string  `json:"driverId" validate:"required"`
}

// alertWire is the shape alerts arrive in from the backend. The id may be a
// string or a number, the driver id may arrive under either of two field
// names and the timestamp may be ISO-8601 or an epoch value.
type alertWire struct {
	ID            json.RawMessage `json:"id"`
	DriverID      string          `json:"driverId"`
	DriverIDSnake string          `json:"driver_id"`
	Type          string          `json:"type"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	Timestamp     json.RawMessage `json:"timestamp"`
	Status        string          `json:"status"`
	Acknowledged  bool            `json:"acknowledged"`
	Message       string          `json:"message"`
}

// DecodeAlert normalizes a raw backend payload into an Alert. This is the
// single place field-name and timestamp variants are handled; nothing
// downstream branches on wire formats.
func DecodeAlert(raw []byte) (Alert, error) {
	var w alertWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Alert{}, fmt.Errorf("malformed alert payload: %w", err)
	}
	return w.normalize()
}

// DecodeAlerts normalizes a JSON array of backend alerts, as returned by the
// snapshot endpoints.
func DecodeAlerts(raw []byte) ([]Alert, error) {
	var wires []alertWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, fmt.Errorf("malformed alert list payload: %w", err)
	}
	alerts := make([]Alert, 0, len(wires))
	for _, w := range wires {
		alert, err := w.normalize()
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (w alertWire) normalize() (Alert, error) {
	id, err := decodeScalarID(w.ID)
	if err != nil {
		return Alert{}, err
	}
	if id == "" {
		return Alert{}, errors.New("alert payload missing id")
	}

	driverID := w.DriverID
	if driverID == "" {
		driverID = w.DriverIDSnake
	}

	ts, err := decodeTimestamp(w.Timestamp)
	if err != nil {
		return Alert{}, err
	}

	status := strings.ToUpper(w.Status)
	if status == "" {
		status = AlertStatusActive
	}

	return Alert{
		ID:           id,
		DriverID:     driverID,
		Type:         strings.ToUpper(w.Type),
		Latitude:     w.Latitude,
		Longitude:    w.Longitude,
		Timestamp:    ts,
		Status:       status,
		Acknowledged: w.Acknowledged,
		Message:      w.Message,
	}, nil
}

// decodeScalarID accepts string or numeric ids and renders both as strings.
func decodeScalarID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported alert id value: %s", string(raw))
}

// decodeTimestamp handles ISO-8601 strings and epoch seconds/milliseconds.
func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		// Some backends send epoch values as strings.
		if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToTime(epoch), nil
		}
		return time.Time{}, fmt.Errorf("unparseable alert timestamp: %q", s)
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return epochToTime(n), nil
	}

	return time.Time{}, fmt.Errorf("unsupported alert timestamp value: %s", string(raw))
}

func epochToTime(epoch int64) time.Time {
	// Millisecond epochs are 13 digits wide for contemporary dates.
	if epoch > 1e12 {
		return time.UnixMilli(epoch)
	}
	return time.Unix(epoch, 0)
}
