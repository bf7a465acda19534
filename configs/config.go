package config

import (
	"os"
	"strconv"
	"time"
)

// Predictor backends.
const (
	BackendMock   = "mock"
	BackendModel  = "model"
	BackendRemote = "remote"
)

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	LogLevel      string
	APIKey        string
	AdminUsername string
	AdminPassword string

	PredictorBackend     string
	PredictionServiceURL string
	PredictionTimeout    time.Duration
	MockDelay            time.Duration
	ModelConfigPath      string
	PredictionCacheSize  int

	SessionTTL       time.Duration
	BatchConcurrency int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		APIKey:        getEnv("API_KEY", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		PredictorBackend:     getEnv("PREDICTOR_BACKEND", BackendModel),
		PredictionServiceURL: getEnv("PREDICTION_SERVICE_URL", "http://127.0.0.1:5000"),
		PredictionTimeout:    getEnvDuration("PREDICTION_TIMEOUT", 10*time.Second),
		MockDelay:            getEnvDuration("MOCK_DELAY", time.Second),
		ModelConfigPath:      getEnv("MODEL_CONFIG_PATH", ""),
		PredictionCacheSize:  getEnvInt("PREDICTION_CACHE_SIZE", 256),

		SessionTTL:       getEnvDuration("SESSION_TTL", 30*time.Minute),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 8),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
