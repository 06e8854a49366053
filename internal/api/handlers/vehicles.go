package handlers

import (
	"net/http"

	"fleet-console/internal/models"
	"fleet-console/internal/services"
	"fleet-console/internal/upstream"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type VehicleHandler struct {
	client    *upstream.Client
	tracking  *services.TrackingService
	validator *validator.Validate
}

func NewVehicleHandler(client *upstream.Client, tracking *services.TrackingService) *VehicleHandler {
	return &VehicleHandler{
		client:    client,
		tracking:  tracking,
		validator: validator.New(),
	}
}

// GetVehicles lists all vehicles
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	vehicles, err := h.client.ListVehicles(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve vehicles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", vehicles)
}

// GetVehicle retrieves a specific vehicle by ID
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicleID := c.Param("id")
	if vehicleID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Vehicle ID is required", nil)
		return
	}

	vehicle, err := h.client.GetVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// AssignVehicle registers a vehicle against a driver
func (h *VehicleHandler) AssignVehicle(c *gin.Context) {
	driverID := c.Param("driverId")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&vehicle); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	assigned, err := h.client.AssignVehicle(c.Request.Context(), driverID, vehicle)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to assign vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle assigned successfully", assigned)
}

// DeleteVehicle removes a vehicle
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	vehicleID := c.Param("id")
	if vehicleID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Vehicle ID is required", nil)
		return
	}

	if err := h.client.DeleteVehicle(c.Request.Context(), vehicleID); err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to delete vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle deleted successfully", nil)
}

// GetPositions returns the last broadcast position sample per vehicle
func (h *VehicleHandler) GetPositions(c *gin.Context) {
	if h.tracking == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Live tracking is not enabled", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Positions retrieved successfully", h.tracking.Positions())
}
