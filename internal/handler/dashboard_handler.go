package handler

import (
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DashboardHandler serves per-user statistics.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *logrus.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Stats returns record counts for the caller.
// @Summary Dashboard statistics
// @Tags dashboard
// @Security Bearer
// @Success 200 {object} utils.Response{data=dto.DashboardStats}
// @Router /api/v1/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, stats)
}
