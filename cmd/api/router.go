package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pharmacy-backend/internal/shared/middleware"
	"pharmacy-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		setupInventoryRoutes(v1, c)
		setupAlertRoutes(v1, c)
	}

	return router
}

// ========================================
// INVENTORY ROUTES
// ========================================
func setupInventoryRoutes(v1 *gin.RouterGroup, c *container.Container) {
	inventory := v1.Group("/inventory")
	inventory.Use(middleware.Tenant())
	{
		// Scan is the single write path
		inventory.POST("/scan", c.InventoryHandler.Scan)
		inventory.GET("/lookup", c.InventoryHandler.Lookup)

		// Read API
		inventory.GET("/items", c.InventoryHandler.ListItems)
		inventory.GET("/items/:id", c.InventoryHandler.GetItem)
		inventory.GET("/items/:id/transactions", c.InventoryHandler.ListTransactions)
		inventory.GET("/summary", c.InventoryHandler.StockSummary)
	}
}

// ========================================
// ALERT ROUTES
// ========================================
func setupAlertRoutes(v1 *gin.RouterGroup, c *container.Container) {
	alerts := v1.Group("/alerts")
	alerts.Use(middleware.Tenant())
	{
		alerts.GET("", c.AlertHandler.ListAlerts)
		alerts.GET("/:id", c.AlertHandler.GetAlert)
		alerts.POST("/:id/acknowledge", c.AlertHandler.Acknowledge)
		alerts.POST("/:id/resolve", c.AlertHandler.Resolve)
		alerts.POST("/:id/dismiss", c.AlertHandler.Dismiss)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
			"services":  gin.H{},
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Redis failure degrades read acceleration only, so it never
		// flips the overall status.
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
