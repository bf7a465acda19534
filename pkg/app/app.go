// Package app assembles the HTTP application shared by the standalone server
// and the serverless entry point.
package app

import (
	"errors"
	"fmt"
	"net/http"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/handlers"
	"churn-predictor-api/pkg/services"
	"churn-predictor-api/pkg/session"
	"churn-predictor-api/pkg/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App is the wired application.
type App struct {
	Engine     *gin.Engine
	Store      *session.Store
	Monitoring *services.MonitoringService
	Predictor  session.Predictor
}

// Close ends every session and waits for in-flight predictions.
func (a *App) Close() {
	a.Store.Close()
}

// NewControllerFactory returns a factory of controllers that report their
// outcomes to monitor.
func NewControllerFactory(p session.Predictor, cfg *config.Config, monitor *services.MonitoringService, logger *zap.Logger) handlers.ControllerFactory {
	return func() *session.Controller {
		ctrl := session.NewController(p,
			session.WithTimeout(cfg.PredictionTimeout),
			session.WithLogger(logger),
		)
		if monitor != nil {
			ctrl.Subscribe(monitor.RecordOutcome)
		}
		return ctrl
	}
}

// Build wires services, handlers and routes. A scoring model that cannot be
// loaded does not stop the server: predictions then fail with a 500 and
// "Model not found".
func Build(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	predictor, err := services.NewPredictor(cfg, logger)
	if err != nil {
		if !errors.Is(err, services.ErrModelUnavailable) {
			return nil, fmt.Errorf("failed to create predictor: %w", err)
		}
		logger.Error("scoring model unavailable, predictions will fail", zap.Error(err))
		predictor = services.UnavailablePredictor{Cause: err}
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	// Services
	monitoringService := services.NewMonitoringService(logger)
	newController := NewControllerFactory(predictor, cfg, monitoringService, logger)
	store := session.NewStore(newController, cfg.SessionTTL, logger)
	batchService := services.NewBatchService(predictor, cfg.BatchConcurrency, logger)
	cache, _ := predictor.(*services.CachedPredictor)

	// Handlers
	adminHandler := handlers.NewAdminHandler(cfg, logger)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, cache)
	predictionHandler := handlers.NewPredictionHandler(newController)
	sessionHandler := handlers.NewSessionHandler(store)
	batchHandler := handlers.NewBatchHandler(batchService)
	pageHandler := handlers.NewPageHandler(newController)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// Middleware
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(gin.Recovery())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-API-KEY")
	r.Use(cors.New(corsConfig))
	r.Use(adminHandler.MaintenanceMiddleware())

	r.GET("/health", adminHandler.HealthCheck)

	// Form page and the legacy scoring contract
	r.GET("/", pageHandler.Index)
	r.POST("/", pageHandler.Submit)
	r.POST("/predict", predictionHandler.Predict)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey, logger))
	{
		v1.POST("/predict", predictionHandler.PredictDetailed)
		v1.POST("/predict/batch", batchHandler.PredictBatch)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.PUT("/:id/fields", sessionHandler.UpdateFields)
			sessions.POST("/:id/submit", sessionHandler.Submit)
			sessions.POST("/:id/cancel", sessionHandler.Cancel)
			sessions.DELETE("/:id", sessionHandler.Delete)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
			monitoring.GET("/cache", monitoringHandler.GetCacheStats)
		}
	}

	return &App{
		Engine:     r,
		Store:      store,
		Monitoring: monitoringService,
		Predictor:  predictor,
	}, nil
}

// authMiddleware checks X-API-KEY on /api/v1. An empty key disables the check.
func authMiddleware(apiKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			logger.Warn("rejected request with invalid API key", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
