package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/internal/api/handlers"
	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
)

// Dependencies are the services the routes are built from. DB, Redis and
// Agents may be nil.
type Dependencies struct {
	LightCurves     *services.LightCurveService
	Exoplanets      *services.ExoplanetService
	Monitor         *services.SystemMonitor
	Agents          handlers.AgentsClient
	DB              handlers.HealthChecker
	Redis           handlers.HealthChecker
	Auth            *middleware.AuthMiddleware
	Admin           *middleware.AdminMiddleware
	TelegramEnabled bool
	MaxUploadBytes  int64
	Version         string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Monitor, deps.TelegramEnabled, deps.Version)
	lightCurveHandler := handlers.NewLightCurveHandler(deps.LightCurves, deps.MaxUploadBytes)
	reportHandler := handlers.NewReportHandler(deps.LightCurves)
	exoplanetHandler := handlers.NewExoplanetHandler(deps.Exoplanets)
	agentsHandler := handlers.NewAgentsHandler(deps.Agents)

	// Health check endpoints
	health := router.Group("/", middleware.HealthCheckTelemetryMiddleware())
	{
		health.GET("/health", gin.WrapF(healthHandler.HealthCheck))
		health.HEAD("/health", gin.WrapF(healthHandler.HealthCheck))
		health.GET("/ready", gin.WrapF(healthHandler.ReadinessCheck))
		health.GET("/live", gin.WrapF(healthHandler.LivenessCheck))
	}

	v1 := router.Group("/api/v1")
	{
		lightcurves := v1.Group("/lightcurves")
		{
			lightcurves.POST("/simulate", lightCurveHandler.Simulate)
			lightcurves.POST("/export", lightCurveHandler.Export)
			lightcurves.POST("/fold", lightCurveHandler.Fold)
			lightcurves.POST("/analyze", deps.Auth.OptionalAuth(), lightCurveHandler.Analyze)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("", deps.Auth.RequireAuth(), reportHandler.ListReports)
			reports.GET("/:id", deps.Auth.OptionalAuth(), reportHandler.GetReport)
			reports.DELETE("/:id", deps.Admin.RequireAdminAuth(), reportHandler.DeleteReport)
		}

		exoplanets := v1.Group("/exoplanets")
		{
			exoplanets.GET("", exoplanetHandler.Lookup)
			exoplanets.GET("/eyes", exoplanetHandler.EyesLinks)
			exoplanets.GET("/cache/stats", exoplanetHandler.CacheStats)
			exoplanets.DELETE("/cache", deps.Admin.RequireAdminAuth(), exoplanetHandler.ClearCache)
		}

		agentsGroup := v1.Group("/agents")
		{
			agentsGroup.POST("/predict", agentsHandler.Predict)
			agentsGroup.POST("/predict/batch", agentsHandler.PredictBatch)
			agentsGroup.POST("/kepler", agentsHandler.Kepler)
			agentsGroup.POST("/bibliographic", agentsHandler.Bibliographic)
			agentsGroup.POST("/grace-hopper", agentsHandler.GraceHopper)
			agentsGroup.GET("/health", agentsHandler.Health)
		}
	}
}
