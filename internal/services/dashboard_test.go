package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-console/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFleetData struct {
	drivers     []models.Driver
	vehicles    []models.Vehicle
	rides       []models.RideFare
	rate        models.FareRate
	driversErr  error
	vehiclesErr error
	ridesErr    error
	rateErr     error
	calls       int
}

func (f *fakeFleetData) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	f.calls++
	return f.drivers, f.driversErr
}

func (f *fakeFleetData) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return f.vehicles, f.vehiclesErr
}

func (f *fakeFleetData) RecentRides(ctx context.Context) ([]models.RideFare, error) {
	return f.rides, f.ridesErr
}

func (f *fakeFleetData) CurrentFareRate(ctx context.Context) (models.FareRate, error) {
	return f.rate, f.rateErr
}

type fakeAlertCounter struct {
	count int
}

func (f *fakeAlertCounter) ActiveCount() int { return f.count }

func TestRebuildAggregatesAllSections(t *testing.T) {
	now := time.Now()
	data := &fakeFleetData{
		drivers:  []models.Driver{{ID: "D1"}, {ID: "D2"}, {ID: "D3"}},
		vehicles: []models.Vehicle{{ID: "V1"}, {ID: "V2"}},
		rides: []models.RideFare{
			{ID: "R1", DriverID: "D1", FareAmount: 120, EndTime: now.Add(-time.Hour)},
			{ID: "R2", DriverID: "D2", FareAmount: 80, EndTime: now.Add(-2 * time.Hour)},
			{ID: "R3", DriverID: "D1", FareAmount: 200, EndTime: now.AddDate(0, 0, -1)},
		},
		rate: models.FareRate{Rate: 12.5},
	}
	svc := NewDashboardService(data, &fakeAlertCounter{count: 2}, nil, time.Minute)

	summary, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalDrivers)
	assert.Equal(t, 2, summary.TotalVehicles)
	assert.Equal(t, 2, summary.ActiveAlerts)
	assert.Equal(t, 12.5, summary.FareRate)
	assert.Equal(t, 2, summary.TodayRides)
	assert.Equal(t, 200.0, summary.TodayRevenue)
	require.Len(t, summary.RecentActivity, 3)
	assert.Equal(t, "D1", summary.RecentActivity[0].DriverID)
	assert.Equal(t, 120.0, summary.RecentActivity[0].Amount)
}

func TestRebuildDegradesFailedSections(t *testing.T) {
	data := &fakeFleetData{
		drivers:     []models.Driver{{ID: "D1"}},
		vehiclesErr: errors.New("upstream down"),
		ridesErr:    errors.New("upstream down"),
		rateErr:     errors.New("upstream down"),
	}
	svc := NewDashboardService(data, &fakeAlertCounter{}, nil, time.Minute)

	summary, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalDrivers)
	assert.Equal(t, 0, summary.TotalVehicles)
	assert.Equal(t, 0, summary.TodayRides)
	assert.Equal(t, 0.0, summary.FareRate)
	assert.Empty(t, summary.RecentActivity)
}

func TestSummaryReturnsHeldSnapshotWithoutRefetch(t *testing.T) {
	data := &fakeFleetData{drivers: []models.Driver{{ID: "D1"}}}
	svc := NewDashboardService(data, &fakeAlertCounter{}, nil, time.Minute)

	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	callsAfterBuild := data.calls

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalDrivers)
	assert.Equal(t, callsAfterBuild, data.calls)
}

func TestSummaryFallsBackToRedisSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	data := &fakeFleetData{drivers: []models.Driver{{ID: "D1"}, {ID: "D2"}}}
	first := NewDashboardService(data, &fakeAlertCounter{}, cache, time.Minute)
	_, err = first.Rebuild(context.Background())
	require.NoError(t, err)

	// A fresh service with a dead upstream should serve the cached snapshot.
	broken := &fakeFleetData{driversErr: errors.New("upstream down")}
	second := NewDashboardService(broken, &fakeAlertCounter{}, cache, time.Minute)

	summary, err := second.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDrivers)
	assert.Equal(t, 0, broken.calls)
}

func TestTodayTotalsFallsBackToStartTime(t *testing.T) {
	now := time.Now()
	rides := []models.RideFare{
		{FareAmount: 50, StartTime: now.Add(-time.Hour)},
		{FareAmount: 75, StartTime: now.AddDate(0, 0, -2)},
	}

	count, revenue := todayTotals(rides, now)
	assert.Equal(t, 1, count)
	assert.Equal(t, 50.0, revenue)
}

func TestRecentActivityCapsAndSorts(t *testing.T) {
	now := time.Now()
	var rides []models.RideFare
	for i := 0; i < 15; i++ {
		rides = append(rides, models.RideFare{
			ID:         string(rune('A' + i)),
			DriverID:   "D1",
			FareAmount: float64(i),
			EndTime:    now.Add(-time.Duration(i) * time.Minute),
		})
	}

	items := recentActivity(rides)
	require.Len(t, items, recentActivityN)
	assert.Equal(t, 0.0, items[0].Amount)
	assert.True(t, items[0].Timestamp.After(items[1].Timestamp))
}
