package upstream

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"fleet-console/internal/models"
)

// FetchAllAlerts returns the backend's full alert history.
func (c *Client) FetchAllAlerts(ctx context.Context) ([]models.Alert, error) {
	data, err := c.get(ctx, "/sos/alerts")
	if err != nil {
		return nil, err
	}
	return models.DecodeAlerts(data)
}

// FetchActiveAlerts returns the currently unacknowledged alerts.
func (c *Client) FetchActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	data, err := c.get(ctx, "/sos/alerts/active")
	if err != nil {
		return nil, err
	}
	return models.DecodeAlerts(data)
}

// AcknowledgeAlert marks an alert resolved on the backend.
func (c *Client) AcknowledgeAlert(ctx context.Context, alertID string) error {
	path := fmt.Sprintf("/sos/alerts/%s/acknowledge", url.PathEscape(alertID))
	_, err := c.do(ctx, http.MethodPut, path, nil)
	return err
}

// SendAlert submits a new alert to the backend. The created alert is
// returned when the backend echoes it back; an unparseable success body is
// logged and tolerated since the push channel delivers the record anyway.
func (c *Client) SendAlert(ctx context.Context, submission models.AlertSubmission) (models.Alert, error) {
	data, err := c.do(ctx, http.MethodPost, "/sos/alert", submission)
	if err != nil {
		return models.Alert{}, err
	}

	if len(data) == 0 {
		return models.Alert{}, nil
	}

	alert, err := models.DecodeAlert(data)
	if err != nil {
		log.Printf("SendAlert: could not decode backend response: %v", err)
		return models.Alert{}, nil
	}
	return alert, nil
}
