package handlers

import (
	"net/http"

	"fleet-console/internal/services"
	"fleet-console/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetSummary returns the aggregated landing-page summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build dashboard summary", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Dashboard summary retrieved successfully", summary)
}

// RefreshSummary forces an immediate rebuild of the summary
func (h *DashboardHandler) RefreshSummary(c *gin.Context) {
	summary, err := h.dashboard.Rebuild(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to rebuild dashboard summary", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Dashboard summary rebuilt successfully", summary)
}
