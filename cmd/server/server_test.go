package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/app"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	// A local .env is optional.
	_ = godotenv.Load("../../.env")

	os.Exit(m.Run())
}

func TestApplicationSetup(t *testing.T) {
	t.Setenv("PREDICTOR_BACKEND", config.BackendMock)
	t.Setenv("MOCK_DELAY", "0s")
	t.Setenv("API_KEY", "")

	cfg := config.LoadConfig()
	require.NotNil(t, cfg)

	a, err := app.Build(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"viewingHours": 10, "avgDuration": 30, "downloads": 2, "accountAge": 12, "monthlyCharges": 50, "totalCharges": 600}`
	req, _ = http.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	w = httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prediction")
}

func TestSweepInterval(t *testing.T) {
	testCases := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{0, time.Minute},
		{30 * time.Minute, 7*time.Minute + 30*time.Second},
		{2 * time.Second, time.Second},
	}

	for _, tc := range testCases {
		if got := sweepInterval(tc.ttl); got != tc.want {
			t.Errorf("sweepInterval(%v) = %v, expected %v", tc.ttl, got, tc.want)
		}
	}
}
