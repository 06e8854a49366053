package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"fleet-console/internal/models"
)

// ErrUnknownSearchField is returned when SearchDrivers is asked for a search
// dimension the backend does not expose.
var ErrUnknownSearchField = errors.New("unknown driver search field")

// PhoneValidation is the backend's verdict on a driver phone number.
type PhoneValidation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (c *Client) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	data, err := c.get(ctx, "/drivers")
	if err != nil {
		return nil, err
	}
	var drivers []models.Driver
	if err := decodeInto(data, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

func (c *Client) GetDriver(ctx context.Context, id string) (models.Driver, error) {
	data, err := c.get(ctx, "/drivers/"+url.PathEscape(id))
	if err != nil {
		return models.Driver{}, err
	}
	var driver models.Driver
	if err := decodeInto(data, &driver); err != nil {
		return models.Driver{}, err
	}
	return driver, nil
}

func (c *Client) CreateDriver(ctx context.Context, driver models.Driver) (models.Driver, error) {
	data, err := c.do(ctx, http.MethodPost, "/drivers", driver)
	if err != nil {
		return models.Driver{}, err
	}
	var created models.Driver
	if err := decodeInto(data, &created); err != nil {
		return models.Driver{}, err
	}
	return created, nil
}

func (c *Client) UpdateDriver(ctx context.Context, id string, driver models.Driver) (models.Driver, error) {
	data, err := c.do(ctx, http.MethodPut, "/drivers/"+url.PathEscape(id), driver)
	if err != nil {
		return models.Driver{}, err
	}
	var updated models.Driver
	if err := decodeInto(data, &updated); err != nil {
		return models.Driver{}, err
	}
	return updated, nil
}

func (c *Client) DeleteDriver(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/drivers/"+url.PathEscape(id), nil)
	return err
}

// SearchDrivers queries one of the backend's driver search endpoints.
// Field selects the search dimension: name, phone, license or vehicle.
func (c *Client) SearchDrivers(ctx context.Context, field, value string) ([]models.Driver, error) {
	var path string
	switch field {
	case "name":
		path = "/drivers/search/name?driverName=" + url.QueryEscape(value)
	case "phone":
		path = "/drivers/search/phone?driverPhone=" + url.QueryEscape(value)
	case "license":
		path = "/drivers/search/license?licenseNumber=" + url.QueryEscape(value)
	case "vehicle":
		path = "/drivers/search/vehicle?vehicleNumber=" + url.QueryEscape(value)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSearchField, field)
	}

	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var drivers []models.Driver
	if err := decodeInto(data, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// ValidateDriverPhone checks phone uniqueness, optionally excluding an
// existing driver (for edits).
func (c *Client) ValidateDriverPhone(ctx context.Context, phone, excludeDriverID string) (PhoneValidation, error) {
	params := url.Values{"phone": []string{phone}}
	if excludeDriverID != "" {
		params.Set("excludeDriverId", excludeDriverID)
	}

	data, err := c.get(ctx, "/drivers/validate/phone?"+params.Encode())
	if err != nil {
		return PhoneValidation{}, err
	}
	var result PhoneValidation
	if err := decodeInto(data, &result); err != nil {
		return PhoneValidation{}, err
	}
	return result, nil
}
