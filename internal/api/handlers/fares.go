package handlers

import (
	"net/http"
	"strconv"

	"fleet-console/internal/models"
	"fleet-console/internal/upstream"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FareHandler struct {
	client    *upstream.Client
	validator *validator.Validate
}

func NewFareHandler(client *upstream.Client) *FareHandler {
	return &FareHandler{
		client:    client,
		validator: validator.New(),
	}
}

// GetFareRate returns the current per-kilometre fare rate
func (h *FareHandler) GetFareRate(c *gin.Context) {
	rate, err := h.client.CurrentFareRate(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve fare rate", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fare rate retrieved successfully", rate)
}

// UpdateFareRate changes the per-kilometre fare rate
func (h *FareHandler) UpdateFareRate(c *gin.Context) {
	raw := c.Query("newRate")
	if raw == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "newRate parameter is required", nil)
		return
	}

	newRate, err := strconv.ParseFloat(raw, 64)
	if err != nil || newRate <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "newRate must be a positive number", err)
		return
	}

	rate, err := h.client.UpdateFareRate(c.Request.Context(), newRate)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to update fare rate", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fare rate updated successfully", rate)
}

// GetRecentRides returns the latest autometer ride fares
func (h *FareHandler) GetRecentRides(c *gin.Context) {
	rides, err := h.client.RecentRides(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve rides", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Rides retrieved successfully", rides)
}

// GetRidesByDriver returns a driver's ride fares
func (h *FareHandler) GetRidesByDriver(c *gin.Context) {
	driverID := c.Param("driverId")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	rides, err := h.client.RidesByDriver(c.Request.Context(), driverID)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve rides", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Rides retrieved successfully", rides)
}

// SubmitRide records a completed ride fare
func (h *FareHandler) SubmitRide(c *gin.Context) {
	var ride models.RideFare
	if err := c.ShouldBindJSON(&ride); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&ride); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	created, err := h.client.SubmitRide(c.Request.Context(), ride)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to submit ride", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Ride submitted successfully", created)
}
