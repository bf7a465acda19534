package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeatureCoefficient standardizes one input and weights it.
type FeatureCoefficient struct {
	Name   string  `yaml:"name"`
	Mean   float64 `yaml:"mean"`
	Scale  float64 `yaml:"scale"`
	Weight float64 `yaml:"weight"`
}

// ModelConfig describes the logistic churn scoring model.
type ModelConfig struct {
	Version  string               `yaml:"version"`
	Bias     float64              `yaml:"bias"`
	Features []FeatureCoefficient `yaml:"features"`
}

// DefaultModelConfig returns the built-in coefficients. Longer engagement and
// tenure lower the risk, higher monthly charges raise it.
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{
		Version: "heuristic-v1",
		Bias:    -0.3,
		Features: []FeatureCoefficient{
			{Name: "viewingHoursPerWeek", Mean: 10, Scale: 6, Weight: -0.8},
			{Name: "avgViewingDurationMinutes", Mean: 45, Scale: 25, Weight: -0.5},
			{Name: "downloadsPerMonth", Mean: 5, Scale: 4, Weight: -0.4},
			{Name: "accountAgeMonths", Mean: 24, Scale: 18, Weight: -0.7},
			{Name: "monthlyCharges", Mean: 40, Scale: 20, Weight: 0.6},
			{Name: "totalCharges", Mean: 800, Scale: 700, Weight: -0.2},
		},
	}
}

// LoadModelConfig reads coefficients from a YAML file. An empty path yields
// the built-in defaults.
func LoadModelConfig(path string) (*ModelConfig, error) {
	if path == "" {
		return DefaultModelConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse model config YAML: %w", err)
	}
	if len(cfg.Features) == 0 {
		return nil, fmt.Errorf("model config %s declares no features", path)
	}
	return &cfg, nil
}
