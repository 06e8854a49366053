package handlers

import (
	"errors"
	"net/http"

	"fleet-console/internal/models"
	"fleet-console/internal/upstream"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type DriverHandler struct {
	client    *upstream.Client
	validator *validator.Validate
}

func NewDriverHandler(client *upstream.Client) *DriverHandler {
	return &DriverHandler{
		client:    client,
		validator: validator.New(),
	}
}

// upstreamStatus maps an upstream failure to a proxy response code
func upstreamStatus(err error) int {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return http.StatusBadRequest
		}
	}
	return http.StatusBadGateway
}

// GetDrivers lists all drivers
func (h *DriverHandler) GetDrivers(c *gin.Context) {
	drivers, err := h.client.ListDrivers(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve drivers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Drivers retrieved successfully", drivers)
}

// GetDriver retrieves a specific driver by ID
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	driver, err := h.client.GetDriver(c.Request.Context(), driverID)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to retrieve driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver retrieved successfully", driver)
}

// CreateDriver registers a new driver
func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&driver); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	created, err := h.client.CreateDriver(c.Request.Context(), driver)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to create driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Driver created successfully", created)
}

// UpdateDriver updates an existing driver
func (h *DriverHandler) UpdateDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&driver); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	updated, err := h.client.UpdateDriver(c.Request.Context(), driverID, driver)
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to update driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver updated successfully", updated)
}

// DeleteDriver removes a driver
func (h *DriverHandler) DeleteDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	if err := h.client.DeleteDriver(c.Request.Context(), driverID); err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Failed to delete driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver deleted successfully", nil)
}

// SearchDrivers searches drivers by name, phone, license or vehicle number
func (h *DriverHandler) SearchDrivers(c *gin.Context) {
	field := c.Query("field")
	value := c.Query("value")
	if field == "" || value == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Both field and value parameters are required", nil)
		return
	}

	drivers, err := h.client.SearchDrivers(c.Request.Context(), field, value)
	if err != nil {
		if errors.Is(err, upstream.ErrUnknownSearchField) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Unknown search field", err)
			return
		}
		utils.ErrorResponse(c, upstreamStatus(err), "Search failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Drivers retrieved successfully", drivers)
}

// ValidatePhone checks whether a phone number is already registered
func (h *DriverHandler) ValidatePhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Phone parameter is required", nil)
		return
	}

	result, err := h.client.ValidateDriverPhone(c.Request.Context(), phone, c.Query("excludeDriverId"))
	if err != nil {
		utils.ErrorResponse(c, upstreamStatus(err), "Phone validation failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Phone validated successfully", result)
}
