package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fleet-console/internal/models"
)

// CurrentFareRate returns the per-kilometre fare rate.
func (c *Client) CurrentFareRate(ctx context.Context) (models.FareRate, error) {
	data, err := c.get(ctx, "/fare/get")
	if err != nil {
		return models.FareRate{}, err
	}
	var rate models.FareRate
	if err := decodeInto(data, &rate); err != nil {
		return models.FareRate{}, err
	}
	return rate, nil
}

// UpdateFareRate sets a new per-kilometre rate. The backend takes the value
// as a query parameter, not a body.
func (c *Client) UpdateFareRate(ctx context.Context, newRate float64) (models.FareRate, error) {
	path := "/fare/change?newRate=" + url.QueryEscape(strconv.FormatFloat(newRate, 'f', -1, 64))
	data, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return models.FareRate{}, err
	}
	var rate models.FareRate
	if err := decodeInto(data, &rate); err != nil {
		return models.FareRate{}, err
	}
	return rate, nil
}

// RecentRides returns the latest autometer ride-fare records.
func (c *Client) RecentRides(ctx context.Context) ([]models.RideFare, error) {
	data, err := c.get(ctx, "/fares/autometer/recent")
	if err != nil {
		return nil, err
	}
	var rides []models.RideFare
	if err := decodeInto(data, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

// RidesByDriver returns a driver's ride-fare records.
func (c *Client) RidesByDriver(ctx context.Context, driverID string) ([]models.RideFare, error) {
	data, err := c.get(ctx, "/fares/autometer/driver/"+url.PathEscape(driverID))
	if err != nil {
		return nil, err
	}
	var rides []models.RideFare
	if err := decodeInto(data, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

// SubmitRide posts a new autometer ride record.
func (c *Client) SubmitRide(ctx context.Context, ride models.RideFare) (models.RideFare, error) {
	data, err := c.do(ctx, http.MethodPost, "/fares/autometer", ride)
	if err != nil {
		return models.RideFare{}, err
	}
	var created models.RideFare
	if err := decodeInto(data, &created); err != nil {
		return models.RideFare{}, err
	}
	return created, nil
}
