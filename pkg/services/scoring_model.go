package services

import (
	"context"
	"fmt"
	"math"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/models"
)

// ScoringModel is a logistic churn heuristic:
// p = sigmoid(bias + Σ weight_i * (x_i - mean_i) / scale_i).
type ScoringModel struct {
	version string
	bias    float64
	coef    []config.FeatureCoefficient // canonical field order
}

// NewScoringModel validates cfg and orders its coefficients canonically.
// Every field must appear exactly once with a positive scale.
func NewScoringModel(cfg *config.ModelConfig) (*ScoringModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("model config is nil")
	}

	byField := make(map[form.Field]config.FeatureCoefficient, len(form.Fields))
	for _, c := range cfg.Features {
		field, ok := form.ParseField(c.Name)
		if !ok {
			return nil, fmt.Errorf("model feature %q: %w", c.Name, form.ErrUnknownField)
		}
		if _, dup := byField[field]; dup {
			return nil, fmt.Errorf("model feature %q declared twice", c.Name)
		}
		if c.Scale <= 0 || math.IsNaN(c.Scale) {
			return nil, fmt.Errorf("model feature %q: scale must be positive, got %v", c.Name, c.Scale)
		}
		byField[field] = c
	}

	coef := make([]config.FeatureCoefficient, 0, len(form.Fields))
	for _, field := range form.Fields {
		c, ok := byField[field]
		if !ok {
			return nil, fmt.Errorf("model config is missing feature %q", field)
		}
		coef = append(coef, c)
	}

	return &ScoringModel{version: cfg.Version, bias: cfg.Bias, coef: coef}, nil
}

// Version returns the configured model version.
func (m *ScoringModel) Version() string { return m.version }

// Score returns the churn probability for in.
func (m *ScoringModel) Score(in models.FormInput) float64 {
	z := m.bias
	for i, x := range in.Features() {
		c := m.coef[i]
		z += c.Weight * (x - c.Mean) / c.Scale
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict implements session.Predictor.
func (m *ScoringModel) Predict(ctx context.Context, in models.FormInput) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p := m.Score(in)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("model %s produced no score for extreme input", m.version)
	}
	return p, nil
}
