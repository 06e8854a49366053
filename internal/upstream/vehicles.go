package upstream

import (
	"context"
	"net/http"
	"net/url"

	"fleet-console/internal/models"
)

func (c *Client) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	data, err := c.get(ctx, "/vehicles")
	if err != nil {
		return nil, err
	}
	var vehicles []models.Vehicle
	if err := decodeInto(data, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *Client) GetVehicle(ctx context.Context, id string) (models.Vehicle, error) {
	data, err := c.get(ctx, "/vehicles/"+url.PathEscape(id))
	if err != nil {
		return models.Vehicle{}, err
	}
	var vehicle models.Vehicle
	if err := decodeInto(data, &vehicle); err != nil {
		return models.Vehicle{}, err
	}
	return vehicle, nil
}

// AssignVehicle registers a vehicle under an existing driver.
func (c *Client) AssignVehicle(ctx context.Context, driverID string, vehicle models.Vehicle) (models.Vehicle, error) {
	data, err := c.do(ctx, http.MethodPost, "/vehicles/assign/"+url.PathEscape(driverID), vehicle)
	if err != nil {
		return models.Vehicle{}, err
	}
	var assigned models.Vehicle
	if err := decodeInto(data, &assigned); err != nil {
		return models.Vehicle{}, err
	}
	return assigned, nil
}

func (c *Client) DeleteVehicle(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/vehicles/"+url.PathEscape(id), nil)
	return err
}
