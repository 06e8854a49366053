package services

import (
	"context"
	"sync"
	"testing"

	"fleet-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	mu        sync.Mutex
	positions []models.VehiclePosition
}

func (f *fakeBroadcaster) BroadcastPosition(pos models.VehiclePosition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, pos)
}

func (f *fakeBroadcaster) all() []models.VehiclePosition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.VehiclePosition, len(f.positions))
	copy(out, f.positions)
	return out
}

type fakeVehicleLister struct {
	vehicles []models.Vehicle
}

func (f *fakeVehicleLister) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return f.vehicles, nil
}

func TestSeedRegistersVehicles(t *testing.T) {
	lister := &fakeVehicleLister{vehicles: []models.Vehicle{
		{ID: "V1", DriverID: "D1", Latitude: 28.61, Longitude: 77.21},
		{ID: "V2"},
	}}
	svc := NewTrackingService(lister, &fakeBroadcaster{})

	svc.seed(context.Background())

	positions := svc.Positions()
	require.Len(t, positions, 2)

	byID := make(map[string]models.VehiclePosition)
	for _, pos := range positions {
		byID[pos.VehicleID] = pos
	}
	assert.Equal(t, 28.61, byID["V1"].Latitude)
	assert.Equal(t, "D1", byID["V1"].DriverID)
	// Vehicles without coordinates get placed near the default centre.
	assert.InDelta(t, 28.64, byID["V2"].Latitude, 0.05)
}

func TestSeedDropsRemovedVehicles(t *testing.T) {
	lister := &fakeVehicleLister{vehicles: []models.Vehicle{{ID: "V1"}, {ID: "V2"}}}
	svc := NewTrackingService(lister, &fakeBroadcaster{})
	svc.seed(context.Background())
	require.Len(t, svc.Positions(), 2)

	lister.vehicles = []models.Vehicle{{ID: "V2"}}
	svc.seed(context.Background())

	positions := svc.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, "V2", positions[0].VehicleID)
}

func TestStepJittersAndBroadcasts(t *testing.T) {
	hub := &fakeBroadcaster{}
	lister := &fakeVehicleLister{vehicles: []models.Vehicle{
		{ID: "V1", Latitude: 28.61, Longitude: 77.21},
	}}
	svc := NewTrackingService(lister, hub)
	svc.seed(context.Background())

	svc.step()

	broadcasts := hub.all()
	require.Len(t, broadcasts, 1)
	pos := broadcasts[0]
	assert.Equal(t, "V1", pos.VehicleID)
	assert.InDelta(t, 28.61, pos.Latitude, positionJitter)
	assert.InDelta(t, 77.21, pos.Longitude, positionJitter)
	assert.LessOrEqual(t, pos.Speed, maxSpeedKmh)
	assert.False(t, pos.UpdatedAt.IsZero())

	// The held snapshot tracks the jittered position.
	held := svc.Positions()
	require.Len(t, held, 1)
	assert.Equal(t, pos.Latitude, held[0].Latitude)
}
