package models

import "time"

// Vehicle mirrors the upstream fleet backend's vehicle record.
type Vehicle struct {
	ID            string  `json:"id"`
	VehicleNumber string  `json:"vehicleNumber" validate:"required"`
	Model         string  `json:"model,omitempty"`
	Capacity      int     `json:"capacity,omitempty"`
	DriverID      string  `json:"driverId,omitempty"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
}

// VehiclePosition is a point-in-time position sample broadcast to dashboard
// clients by the live movement feed.
type VehiclePosition struct {
	VehicleID string    `json:"vehicleId"`
	DriverID  string    `json:"driverId,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     int       `json:"speed"`
	UpdatedAt time.Time `json:"updatedAt"`
}
