package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArchivedAlert is the persisted form of an SOS alert. The reconciler keeps
// the live picture in memory; every alert it observes is also upserted here
// keyed by the upstream alert ID so operators can query past incidents after
// the console restarts.
type ArchivedAlert struct {
	ID         primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	AlertID    string             `json:"alertId" bson:"alert_id"`
	DriverID   string             `json:"driverId" bson:"driver_id"`
	Type       string             `json:"type" bson:"type"`
	Latitude   float64            `json:"latitude" bson:"latitude"`
	Longitude  float64            `json:"longitude" bson:"longitude"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
	Message    string             `json:"message,omitempty" bson:"message,omitempty"`
	Resolved   bool               `json:"resolved" bson:"resolved"`
	ResolvedAt *time.Time         `json:"resolvedAt,omitempty" bson:"resolved_at,omitempty"`
	FirstSeen  time.Time          `json:"firstSeen" bson:"first_seen"`
	LastSeen   time.Time          `json:"lastSeen" bson:"last_seen"`
}
