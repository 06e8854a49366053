package services

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"fleet-console/internal/models"
)

const (
	positionInterval = 3 * time.Second
	positionJitter   = 0.001 // ~100m per tick
	maxSpeedKmh      = 60
)

// PositionBroadcaster pushes position samples to connected dashboard clients.
type PositionBroadcaster interface {
	BroadcastPosition(pos models.VehiclePosition)
}

// VehicleLister is the slice of the upstream client the tracker seeds from.
type VehicleLister interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// TrackingService simulates live vehicle movement. The upstream backend has
// no position feed yet, so the console jitters each vehicle around its last
// known coordinates every few seconds and broadcasts the samples over the
// dashboard websocket. Swapping in a real GPS feed only needs a different
// producer behind the same broadcasts.
type TrackingService struct {
	vehicles VehicleLister
	hub      PositionBroadcaster
	rng      *rand.Rand

	mu        sync.Mutex
	positions map[string]models.VehiclePosition
}

func NewTrackingService(vehicles VehicleLister, hub PositionBroadcaster) *TrackingService {
	return &TrackingService{
		vehicles:  vehicles,
		hub:       hub,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		positions: make(map[string]models.VehiclePosition),
	}
}

// Run seeds positions from the vehicle list and then jitters them on a fixed
// interval until the context is cancelled. The seed list is refreshed every
// minute to pick up fleet changes.
func (s *TrackingService) Run(ctx context.Context) {
	s.seed(ctx)

	tick := time.NewTicker(positionInterval)
	reseed := time.NewTicker(time.Minute)
	defer tick.Stop()
	defer reseed.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reseed.C:
			s.seed(ctx)
		case <-tick.C:
			s.step()
		}
	}
}

// seed loads the vehicle list and registers any vehicle not yet tracked.
// Vehicles without coordinates are placed near a default city centre.
func (s *TrackingService) seed(ctx context.Context) {
	vehicles, err := s.vehicles.ListVehicles(ctx)
	if err != nil {
		log.Printf("tracking: vehicle list fetch failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		seen[v.ID] = true
		if _, ok := s.positions[v.ID]; ok {
			continue
		}
		lat, lng := v.Latitude, v.Longitude
		if lat == 0 && lng == 0 {
			lat = 28.6139 + s.rng.Float64()*0.05
			lng = 77.2090 + s.rng.Float64()*0.05
		}
		s.positions[v.ID] = models.VehiclePosition{
			VehicleID: v.ID,
			DriverID:  v.DriverID,
			Latitude:  lat,
			Longitude: lng,
		}
	}

	for id := range s.positions {
		if !seen[id] {
			delete(s.positions, id)
		}
	}
}

// step jitters every tracked vehicle and broadcasts the new samples.
func (s *TrackingService) step() {
	s.mu.Lock()
	updates := make([]models.VehiclePosition, 0, len(s.positions))
	now := time.Now()
	for id, pos := range s.positions {
		pos.Latitude += (s.rng.Float64() - 0.5) * positionJitter
		pos.Longitude += (s.rng.Float64() - 0.5) * positionJitter
		pos.Speed = s.rng.Intn(maxSpeedKmh + 1)
		pos.UpdatedAt = now
		s.positions[id] = pos
		updates = append(updates, pos)
	}
	s.mu.Unlock()

	for _, pos := range updates {
		s.hub.BroadcastPosition(pos)
	}
}

// Positions returns a snapshot of the last broadcast sample per vehicle.
func (s *TrackingService) Positions() []models.VehiclePosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.VehiclePosition, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out
}
