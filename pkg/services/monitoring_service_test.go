package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcomeCountsSettledStates(t *testing.T) {
	s := NewMonitoringService(nil)

	s.RecordOutcome(session.State{Status: session.StatusPending})
	s.RecordOutcome(session.State{Status: session.StatusResolved, Result: &models.PredictionResult{Probability: 0.8, IsHighRisk: true}})
	s.RecordOutcome(session.State{Status: session.StatusResolved, Result: &models.PredictionResult{Probability: 0.2}})
	s.RecordOutcome(session.State{Status: session.StatusFailed, Err: errors.New("x")})
	s.RecordOutcome(session.State{Status: session.StatusIdle})

	got := s.Predictions()
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.HighRisk)
	assert.Equal(t, 1, got.LowRisk)
	assert.Equal(t, 1, got.Failed)
	assert.InDelta(t, 0.5, got.AverageProbability, 1e-9)
}

func TestLoggingMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewMonitoringService(nil)

	r := gin.New()
	r.Use(s.LoggingMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/api/v1/monitoring/logs", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/boom", "/api/v1/monitoring/logs"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	data := s.GetDashboardData(1)
	assert.Equal(t, map[string]int{"/health": 1, "/boom": 1}, data.Endpoints)
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "/boom", data.RecentErrors[0].Path)
	assert.Equal(t, []map[string]interface{}{
		{"name": "2xx Success", "value": 1},
		{"name": "4xx Client Error", "value": 0},
		{"name": "5xx Server Error", "value": 1},
	}, data.StatusCodes)
}

func TestDashboardBucketsByHour(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	s := NewMonitoringService(nil)
	s.now = func() time.Time { return now }

	s.LogRequest(LogEntry{Timestamp: now.Add(-10 * time.Minute), Path: "/predict", StatusCode: 200, ResponseTime: 20 * time.Millisecond})
	s.LogRequest(LogEntry{Timestamp: now.Add(-70 * time.Minute), Path: "/predict", StatusCode: 200, ResponseTime: 40 * time.Millisecond})
	s.LogRequest(LogEntry{Timestamp: now.Add(-5 * time.Hour), Path: "/predict", StatusCode: 200})

	data := s.GetDashboardData(3)
	require.Len(t, data.RequestsOverTime, 3)
	assert.Equal(t, map[string]interface{}{"time": "10:00", "requests": 0}, data.RequestsOverTime[0])
	assert.Equal(t, map[string]interface{}{"time": "11:00", "requests": 1}, data.RequestsOverTime[1])
	assert.Equal(t, map[string]interface{}{"time": "12:00", "requests": 1}, data.RequestsOverTime[2])
	assert.Equal(t, []map[string]interface{}{{"endpoint": "/predict", "responseTime": int64(30)}}, data.AvgResponseTimes)
}

func TestLogRequestIsCapped(t *testing.T) {
	s := NewMonitoringService(nil)
	for i := 0; i < maxLogEntries+5; i++ {
		s.LogRequest(LogEntry{StatusCode: i})
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Len(t, s.logs, maxLogEntries)
	assert.Equal(t, 5, s.logs[0].StatusCode)
}
