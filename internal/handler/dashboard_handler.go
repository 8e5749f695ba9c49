package handler

import (
	"net/http"

	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetData returns every dashboard aggregate in one response
func (h *DashboardHandler) GetData(c *gin.Context) {
	data, err := h.dashboardService.Build(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}
