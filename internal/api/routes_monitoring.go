package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/sponsorpass/internal/app"
)

func registerMonitoringRoutes(r *gin.Engine, cfg app.PrometheusConfig) {
	if !cfg.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
