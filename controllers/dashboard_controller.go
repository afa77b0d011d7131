package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

// DashboardController serves office statistics and alerts.
type DashboardController struct {
	dashboard *services.DashboardService
	logger    *zap.Logger
}

func NewDashboardController(dashboard *services.DashboardService, logger *zap.Logger) *DashboardController {
	return &DashboardController{dashboard: dashboard, logger: logger}
}

// Stats handles GET /api/v1/dashboard/stats?period=day|week|month
func (ctl *DashboardController) Stats(c *gin.Context) {
	period, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	stats, err := ctl.dashboard.Stats(c.Request.Context(), period)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// Alerts handles GET /api/v1/dashboard/alerts
func (ctl *DashboardController) Alerts(c *gin.Context) {
	alerts, err := ctl.dashboard.Alerts(c.Request.Context())
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, alerts)
}
