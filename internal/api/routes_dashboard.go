package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/app"
	"github.com/charlesng35/sponsorpass/internal/handlers"
	"github.com/charlesng35/sponsorpass/internal/middleware"
	"github.com/charlesng35/sponsorpass/internal/realtime"
	"github.com/charlesng35/sponsorpass/internal/state"
)

func registerDashboardRoutes(r *gin.Engine, limit app.RateLimitConfig, dashboard *state.Dashboard, hub *realtime.Hub) error {
	dashboardHandler, err := handlers.NewDashboardHandler(dashboard)
	if err != nil {
		return err
	}
	pageHandler, err := handlers.NewPageHandler(dashboard)
	if err != nil {
		return err
	}

	r.GET("/", pageHandler.Render)

	api := r.Group("/api")
	api.GET("/view", dashboardHandler.View)
	api.GET("/sponsors", dashboardHandler.Sponsors)

	if hub != nil {
		api.GET("/view/stream", handlers.NewRealtimeHandler(hub).Stream)
	}

	mutating := api.Group("")
	if limit.Requests > 0 && limit.Window > 0 {
		mutating.Use(middleware.RateLimit(limit.Requests, limit.Window))
	}
	{
		mutating.PUT("/selection", dashboardHandler.Select)
		mutating.DELETE("/selection", dashboardHandler.ClearSelection)
		mutating.PUT("/filters", dashboardHandler.SetFilters)
		mutating.PUT("/page", dashboardHandler.SetPage)
		mutating.POST("/passes/refresh", dashboardHandler.Refresh)
		mutating.POST("/passes", dashboardHandler.CreatePass)
		mutating.POST("/passes/:id/revoke", dashboardHandler.RevokePass)
		mutating.DELETE("/errors/action", dashboardHandler.ClearActionError)
		mutating.DELETE("/errors/banner", dashboardHandler.DismissBanner)
	}

	return nil
}
