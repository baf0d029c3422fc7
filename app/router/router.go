package router

import (
	"oeecore/app/handler"
	"oeecore/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	ingestHandler    *handler.IngestHandler
	oeeHandler       *handler.OEEHandler
	equipmentHandler *handler.EquipmentHandler
}

// NewRouter creates a new Router
func NewRouter(ingestHandler *handler.IngestHandler, oeeHandler *handler.OEEHandler, equipmentHandler *handler.EquipmentHandler) *Router {
	return &Router{
		ingestHandler:    ingestHandler,
		oeeHandler:       oeeHandler,
		equipmentHandler: equipmentHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1")
	{
		// Telemetry ingestion (authenticated: collaborators write, dashboards don't)
		events := api.Group("/events")
		events.Use(middleware.AuthMiddleware())
		{
			events.POST("/state", r.ingestHandler.IngestStateEvents)
			events.POST("/production", r.ingestHandler.IngestProductionCounts)
			events.POST("/quality", r.ingestHandler.IngestQualityEvents)
		}

		// Equipment registry mirror and query surface
		api.GET("/equipment", r.equipmentHandler.List)

		equipment := api.Group("/equipment/:id")
		{
			equipment.GET("/oee", r.oeeHandler.GetOEE)
			equipment.GET("/trend", r.oeeHandler.GetTrend)
			equipment.GET("/losses", r.oeeHandler.GetLossPareto)
			equipment.GET("/anomalies", r.oeeHandler.GetAnomalies)
			equipment.GET("/shift-summary", r.oeeHandler.GetShiftSummary)
			equipment.GET("/shifts", r.equipmentHandler.ListShifts)

			// Admin recompute is mutating, so it authenticates
			equipment.POST("/recompute", middleware.AuthMiddleware(), r.ingestHandler.Recompute)
		}

		api.GET("/work-centers/:id/losses", r.oeeHandler.GetWorkCenterLossPareto)

		api.GET("/queue/stats", middleware.AuthMiddleware(), r.ingestHandler.QueueStats)
	}

	// Health check
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
