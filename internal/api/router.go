package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/app"
	"github.com/charlesng35/sponsorpass/internal/middleware"
	"github.com/charlesng35/sponsorpass/internal/monitoring"
	"github.com/charlesng35/sponsorpass/internal/realtime"
	"github.com/charlesng35/sponsorpass/internal/state"
	"github.com/charlesng35/sponsorpass/web"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// dashboard routes. A nil hub disables the websocket stream; a nil health
// manager serves an empty, always healthy report.
func NewRouter(cfg *app.Config, dashboard *state.Dashboard, hub *realtime.Hub, health *monitoring.HealthManager) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if dashboard == nil {
		return nil, fmt.Errorf("dashboard must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	registerHealthRoutes(r, health)
	registerMonitoringRoutes(r, cfg.Monitoring.Prometheus)

	if err := registerDashboardRoutes(r, cfg.Server.RateLimit, dashboard, hub); err != nil {
		return nil, err
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
