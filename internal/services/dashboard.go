package services

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"fleet-console/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	summaryCacheKey = "dashboard:summary"
	recentActivityN = 10
)

// FleetData is the slice of the upstream client the dashboard aggregates over.
type FleetData interface {
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	RecentRides(ctx context.Context) ([]models.RideFare, error)
	CurrentFareRate(ctx context.Context) (models.FareRate, error)
}

// AlertCounter reports the number of currently active SOS alerts.
type AlertCounter interface {
	ActiveCount() int
}

type ActivityItem struct {
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	DriverID    string    `json:"driverId,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type DashboardSummary struct {
	TotalDrivers   int            `json:"totalDrivers"`
	TotalVehicles  int            `json:"totalVehicles"`
	ActiveAlerts   int            `json:"activeAlerts"`
	FareRate       float64        `json:"fareRate"`
	TodayRides     int            `json:"todayRides"`
	TodayRevenue   float64        `json:"todayRevenue"`
	RecentActivity []ActivityItem `json:"recentActivity"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// DashboardService builds the console landing-page summary. Each upstream
// fetch runs in parallel and a failed fetch degrades to an empty section
// rather than failing the whole summary.
type DashboardService struct {
	data     FleetData
	alerts   AlertCounter
	cache    *redis.Client
	cacheTTL time.Duration
	interval time.Duration

	mu      sync.RWMutex
	current *DashboardSummary
}

func NewDashboardService(data FleetData, alerts AlertCounter, cache *redis.Client, interval time.Duration) *DashboardService {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &DashboardService{
		data:     data,
		alerts:   alerts,
		cache:    cache,
		cacheTTL: 2 * interval,
		interval: interval,
	}
}

// Summary returns the most recently built summary, falling back to the Redis
// snapshot and then to a fresh build.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current, nil
	}

	if cached := s.loadCached(ctx); cached != nil {
		return cached, nil
	}

	return s.Rebuild(ctx)
}

// Rebuild fetches everything from upstream and replaces the held summary.
func (s *DashboardService) Rebuild(ctx context.Context) (*DashboardSummary, error) {
	summary := s.build(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	s.current = summary
	s.mu.Unlock()

	s.storeCached(ctx, summary)
	return summary, nil
}

// Run rebuilds the summary on a fixed interval until the context is cancelled.
func (s *DashboardService) Run(ctx context.Context) {
	if _, err := s.Rebuild(ctx); err != nil {
		log.Printf("initial dashboard build failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Rebuild(ctx); err != nil {
				log.Printf("dashboard rebuild failed: %v", err)
			}
		}
	}
}

func (s *DashboardService) build(ctx context.Context) *DashboardSummary {
	var (
		wg       sync.WaitGroup
		drivers  []models.Driver
		vehicles []models.Vehicle
		rides    []models.RideFare
		rate     models.FareRate
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		if drivers, err = s.data.ListDrivers(ctx); err != nil {
			log.Printf("dashboard: driver fetch failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if vehicles, err = s.data.ListVehicles(ctx); err != nil {
			log.Printf("dashboard: vehicle fetch failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if rides, err = s.data.RecentRides(ctx); err != nil {
			log.Printf("dashboard: ride fetch failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if rate, err = s.data.CurrentFareRate(ctx); err != nil {
			log.Printf("dashboard: fare rate fetch failed: %v", err)
		}
	}()
	wg.Wait()

	summary := &DashboardSummary{
		TotalDrivers:  len(drivers),
		TotalVehicles: len(vehicles),
		FareRate:      rate.Rate,
		GeneratedAt:   time.Now(),
	}
	if s.alerts != nil {
		summary.ActiveAlerts = s.alerts.ActiveCount()
	}

	todayRides, todayRevenue := todayTotals(rides, time.Now())
	summary.TodayRides = todayRides
	summary.TodayRevenue = todayRevenue
	summary.RecentActivity = recentActivity(rides)

	return summary
}

// todayTotals counts rides whose end time falls on the given local day and
// sums their fares. Rides without an end time fall back to the start time.
func todayTotals(rides []models.RideFare, now time.Time) (int, float64) {
	year, month, day := now.Date()
	count := 0
	revenue := 0.0
	for _, ride := range rides {
		when := ride.EndTime
		if when.IsZero() {
			when = ride.StartTime
		}
		ry, rm, rd := when.In(now.Location()).Date()
		if ry == year && rm == month && rd == day {
			count++
			revenue += ride.FareAmount
		}
	}
	return count, revenue
}

func recentActivity(rides []models.RideFare) []ActivityItem {
	sorted := make([]models.RideFare, len(rides))
	copy(sorted, rides)
	sort.Slice(sorted, func(i, j int) bool {
		return rideTime(sorted[i]).After(rideTime(sorted[j]))
	})

	if len(sorted) > recentActivityN {
		sorted = sorted[:recentActivityN]
	}

	items := make([]ActivityItem, 0, len(sorted))
	for _, ride := range sorted {
		items = append(items, ActivityItem{
			Kind:        "ride_fare",
			Description: "ride completed",
			DriverID:    ride.DriverID,
			Amount:      ride.FareAmount,
			Timestamp:   rideTime(ride),
		})
	}
	return items
}

func rideTime(ride models.RideFare) time.Time {
	if !ride.EndTime.IsZero() {
		return ride.EndTime
	}
	return ride.StartTime
}

func (s *DashboardService) loadCached(ctx context.Context) *DashboardSummary {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		return nil
	}

	var summary DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		log.Printf("dashboard: corrupt cached summary: %v", err)
		return nil
	}
	return &summary
}

func (s *DashboardService) storeCached(ctx context.Context, summary *DashboardSummary) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, summaryCacheKey, data, s.cacheTTL).Err(); err != nil {
		log.Printf("dashboard: summary cache write failed: %v", err)
	}
}
