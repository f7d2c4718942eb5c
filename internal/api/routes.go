package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/accountdesk/enrichment/internal/telemetry"
)

// SetupRoutes configures all API routes on the router.
func SetupRoutes(router *gin.Engine, handler *Handler, metrics *telemetry.Provider, serviceName, version string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": version,
		})
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")

	match := v1.Group("/match")
	match.POST("", handler.Match)              // POST /api/v1/match
	match.POST("/best", handler.MatchBest)     // POST /api/v1/match/best
	match.POST("/report", handler.MatchReport) // POST /api/v1/match/report

	enrich := v1.Group("/enrich")
	enrich.POST("", handler.EnrichStart)              // POST /api/v1/enrich
	enrich.GET("/active", handler.EnrichActive)       // GET  /api/v1/enrich/active
	enrich.GET("/:id", handler.EnrichRun)             // GET  /api/v1/enrich/:id
	enrich.POST("/:id/cancel", handler.EnrichCancel)  // POST /api/v1/enrich/:id/cancel
	enrich.GET("/:id/results", handler.EnrichResults) // GET  /api/v1/enrich/:id/results

	clients := v1.Group("/clients")
	clients.GET("/:id/competitors", handler.ClientCompetitors) // GET /api/v1/clients/:id/competitors

	cache := v1.Group("/cache")
	cache.GET("/stats", handler.CacheStats)  // GET  /api/v1/cache/stats
	cache.POST("/clear", handler.CacheClear) // POST /api/v1/cache/clear
}
