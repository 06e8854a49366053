package models

import "time"

// RideFare is one autometer ride-fare record from the upstream backend.
type RideFare struct {
	ID         string    `json:"id"`
	DriverID   string    `json:"driverId" validate:"required"`
	VehicleID  string    `json:"vehicleId,omitempty"`
	DistanceKm float64   `json:"distanceKm" validate:"gte=0"`
	FareAmount float64   `json:"fareAmount" validate:"gte=0"`
	StartTime  time.Time `json:"startTime,omitempty"`
	EndTime    time.Time `json:"endTime,omitempty"`
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
}

// FareRate is the current per-kilometre fare rate. The upstream backend
// serializes the value under a snake_case key.
type FareRate struct {
	Rate float64 `json:"fare_rate"`
}
