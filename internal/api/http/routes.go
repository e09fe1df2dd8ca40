package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes for the outbound scan service
func SetupRoutes(router *gin.Engine, handlers *Handlers) {
	v1 := router.Group("/api/v1")
	{
		stations := v1.Group("/stations")
		{
			stations.POST("/:stationId/open", handlers.OpenStation)
			stations.POST("/:stationId/scans", handlers.SubmitScan)
			stations.POST("/:stationId/commit", handlers.Commit)
			stations.POST("/:stationId/reset", handlers.Reset)
			stations.GET("/:stationId", handlers.GetStation)
		}

		outbound := v1.Group("/outbound")
		{
			outbound.GET("", handlers.ListOutbound)
			outbound.GET("/export", handlers.ExportOutbound)
		}
	}
}
