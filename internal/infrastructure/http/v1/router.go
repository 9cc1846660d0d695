// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orgstruct/internal/infrastructure/http/v1/handlers"
	"orgstruct/internal/infrastructure/http/v1/middleware"
	"orgstruct/internal/infrastructure/metrics"
	"orgstruct/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Versions    handlers.VersionService
	Departments handlers.DepartmentService

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	// Metrics is optional; nil disables /metrics and request instrumentation
	Metrics *metrics.Metrics

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Scope())
	{
		base := handlers.NewBaseHandler()

		versions := v1.Group("/versions")
		handlers.NewVersionHandler(base, cfg.Versions).RegisterRoutes(versions)

		departments := versions.Group("/:versionId/departments")
		handlers.NewDepartmentHandler(base, cfg.Departments).RegisterRoutes(departments)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
		})
	})

	return router
}
