package handler

import (
	"net/http"
	"sync"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/app"
	"churn-predictor-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	engine   http.Handler
	setupErr error
	once     sync.Once
)

// setupApp builds the application once per function instance.
// Environment variables come from the platform, so no .env is loaded here.
func setupApp() (http.Handler, error) {
	once.Do(func() {
		cfg := config.LoadConfig()

		logger, err := logging.New(cfg.LogLevel, cfg.Environment)
		if err != nil {
			setupErr = err
			return
		}
		gin.SetMode(gin.ReleaseMode)

		a, err := app.Build(cfg, logger)
		if err != nil {
			logger.Error("failed to build application", zap.Error(err))
			setupErr = err
			return
		}
		// Sessions live only as long as the function instance.
		logger.Info("application initialized", zap.String("backend", cfg.PredictorBackend))
		engine = a.Engine
	})
	return engine, setupErr
}

// Handler is the entry point for every serverless request.
func Handler(w http.ResponseWriter, r *http.Request) {
	h, err := setupApp()
	if err != nil {
		http.Error(w, `{"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	h.ServeHTTP(w, r)
}
