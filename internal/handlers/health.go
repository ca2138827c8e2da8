package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/monitoring"
)

// HealthHandler serves liveness and readiness reports.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

// NewHealthHandler wraps manager. A nil manager reports every probe set as healthy.
func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	if manager == nil {
		manager = monitoring.NewHealthManager(0)
	}
	return &HealthHandler{manager: manager}
}

// Health is the compact readiness summary.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": time.Now().UTC(),
	})
}

// Live reports process liveness with per-probe detail.
func (h *HealthHandler) Live(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateLiveness(c.Request.Context()))
}

// Ready reports readiness with per-probe detail.
func (h *HealthHandler) Ready(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateReadiness(c.Request.Context()))
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}

func reportStatus(report monitoring.HealthReport) int {
	if report.Success {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
