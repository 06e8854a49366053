package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fleet-console/internal/models"
	"fleet-console/internal/reconciler"
	"fleet-console/internal/repository"
	"fleet-console/internal/upstream"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SosHandler struct {
	recon     *reconciler.Reconciler
	archive   *repository.ArchiveRepository
	validator *validator.Validate
}

func NewSosHandler(recon *reconciler.Reconciler, archive *repository.ArchiveRepository) *SosHandler {
	return &SosHandler{
		recon:     recon,
		archive:   archive,
		validator: validator.New(),
	}
}

// GetHistory returns every alert observed this session, newest first by
// arrival
func (h *SosHandler) GetHistory(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Alert history retrieved successfully", h.recon.History())
}

// GetActive returns the currently unresolved alerts
func (h *SosHandler) GetActive(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Active alerts retrieved successfully", h.recon.Active())
}

// GetStatus reports the live-feed connection state and alert counts
func (h *SosHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Status retrieved successfully", gin.H{
		"connectionState": h.recon.ConnectionState(),
		"activeAlerts":    h.recon.ActiveCount(),
		"historySize":     len(h.recon.History()),
	})
}

// AcknowledgeAlert resolves an active alert through the upstream backend
func (h *SosHandler) AcknowledgeAlert(c *gin.Context) {
	alertID := c.Param("id")
	if alertID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Alert ID is required", nil)
		return
	}

	err := h.recon.Acknowledge(c.Request.Context(), alertID)
	if err != nil {
		if errors.Is(err, reconciler.ErrNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Alert is not active", err)
			return
		}
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			utils.ErrorResponse(c, http.StatusBadGateway, "Upstream rejected acknowledgement", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to acknowledge alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert acknowledged successfully", nil)
}

// SendTestAlert submits a synthetic alert to the upstream SOS service
func (h *SosHandler) SendTestAlert(c *gin.Context) {
	var req models.AlertSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	alert, err := h.recon.SendTestAlert(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to send alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Alert sent successfully", alert)
}

// RefreshAlerts re-fetches the upstream snapshots on demand
func (h *SosHandler) RefreshAlerts(c *gin.Context) {
	if err := h.recon.Refresh(c.Request.Context()); err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Refresh failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alerts refreshed successfully", gin.H{
		"activeAlerts": h.recon.ActiveCount(),
		"historySize":  len(h.recon.History()),
	})
}

// GetArchive returns persisted alerts, newest activity first
func (h *SosHandler) GetArchive(c *gin.Context) {
	limit := int64(100)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	alerts, err := h.archive.FindAll(limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve archived alerts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Archived alerts retrieved successfully", alerts)
}

// GetArchiveByDriver returns a driver's persisted alerts
func (h *SosHandler) GetArchiveByDriver(c *gin.Context) {
	driverID := c.Param("driverId")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	alerts, err := h.archive.FindByDriverID(driverID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve archived alerts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Archived alerts retrieved successfully", alerts)
}
