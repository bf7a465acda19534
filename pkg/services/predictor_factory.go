package services

import (
	"context"
	"errors"
	"fmt"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/session"

	"go.uber.org/zap"
)

// ErrModelUnavailable means the scoring model could not be loaded.
var ErrModelUnavailable = errors.New("model not found")

// UnavailablePredictor fails every prediction with ErrModelUnavailable.
type UnavailablePredictor struct {
	Cause error
}

// Predict implements session.Predictor.
func (u UnavailablePredictor) Predict(context.Context, models.FormInput) (float64, error) {
	if u.Cause == nil {
		return 0, ErrModelUnavailable
	}
	return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, u.Cause)
}

// NewPredictor builds the backend selected by cfg.PredictorBackend.
// Deterministic backends are wrapped in an LRU cache when the cache size is positive.
func NewPredictor(cfg *config.Config, logger *zap.Logger) (session.Predictor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var p session.Predictor
	switch cfg.PredictorBackend {
	case config.BackendMock:
		logger.Info("using mock predictor", zap.Duration("delay", cfg.MockDelay))
		return NewMockPredictor(cfg.MockDelay, nil), nil

	case config.BackendModel, "":
		modelCfg, err := config.LoadModelConfig(cfg.ModelConfigPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		model, err := NewScoringModel(modelCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		logger.Info("using scoring model", zap.String("version", model.Version()))
		p = model

	case config.BackendRemote:
		if cfg.PredictionServiceURL == "" {
			return nil, fmt.Errorf("PREDICTION_SERVICE_URL is required for the remote backend")
		}
		logger.Info("using remote scoring service", zap.String("url", cfg.PredictionServiceURL))
		p = NewHTTPPredictor(cfg.PredictionServiceURL, cfg.PredictionTimeout)

	default:
		return nil, fmt.Errorf("unknown predictor backend %q", cfg.PredictorBackend)
	}

	if cfg.PredictionCacheSize <= 0 {
		return p, nil
	}
	cached, err := NewCachedPredictor(p, cfg.PredictionCacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
