package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/handlers"
	"github.com/charlesng35/sponsorpass/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, manager *monitoring.HealthManager) {
	handler := handlers.NewHealthHandler(manager)

	registerHealthEndpoints(r, handler)
	registerHealthEndpoints(r.Group("/api"), handler)
}

func registerHealthEndpoints(router gin.IRouter, handler *handlers.HealthHandler) {
	router.GET("/health", handler.Health)
	router.GET("/health/live", handler.Live)
	router.GET("/health/ready", handler.Ready)
}
