package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"churn-predictor-api/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLogEntries caps the in-memory request log.
const maxLogEntries = 10000

// LogEntry is a single request record.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// PredictionStats counts settled predictions.
type PredictionStats struct {
	Total              int     `json:"total"`
	HighRisk           int     `json:"highRisk"`
	LowRisk            int     `json:"lowRisk"`
	Failed             int     `json:"failed"`
	AverageProbability float64 `json:"averageProbability"`
}

// MonitoringService keeps request logs and prediction outcomes for the dashboard.
type MonitoringService struct {
	logs   []LogEntry
	stats  PredictionStats
	sumP   float64
	mu     sync.RWMutex
	logger *zap.Logger
	now    func() time.Time
}

// NewMonitoringService creates a MonitoringService.
func NewMonitoringService(logger *zap.Logger) *MonitoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitoringService{
		logs:   make([]LogEntry, 0),
		logger: logger,
		now:    time.Now,
	}
}

// LogRequest records a request, dropping the oldest entries beyond the cap.
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - maxLogEntries; over > 0 {
		s.logs = append(s.logs[:0], s.logs[over:]...)
	}
}

// RecordOutcome counts a settled prediction. Idle and Pending states are ignored,
// so it can be used directly as a session.Listener.
func (s *MonitoringService) RecordOutcome(st session.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st.Status {
	case session.StatusResolved:
		if st.Result == nil {
			return
		}
		s.stats.Total++
		s.sumP += st.Result.Probability
		if st.Result.IsHighRisk {
			s.stats.HighRisk++
		} else {
			s.stats.LowRisk++
		}
	case session.StatusFailed:
		s.stats.Total++
		s.stats.Failed++
	}
}

// Predictions returns the prediction counters.
func (s *MonitoringService) Predictions() PredictionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.predictionsLocked()
}

func (s *MonitoringService) predictionsLocked() PredictionStats {
	out := s.stats
	if scored := out.HighRisk + out.LowRisk; scored > 0 {
		out.AverageProbability = s.sumP / float64(scored)
	}
	return out
}

// LoggingMiddleware logs every request through zap and records it for the
// dashboard. Admin and monitoring calls are logged but not recorded.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()

		c.Next()

		path := c.Request.URL.Path
		latency := s.now().Sub(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			s.logger.Error("request", fields...)
		case status >= 400:
			s.logger.Warn("request", fields...)
		default:
			s.logger.Info("request", fields...)
		}

		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}
		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   status,
			ResponseTime: latency,
		})
	}
}

// DashboardData is the aggregated view shown on the dashboard.
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
	Predictions      PredictionStats          `json:"predictions"`
}

// GetDashboardData aggregates the logs of the last periodHours hours (UTC buckets).
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]LogEntry, 0)
	for _, log := range s.logs {
		if log.Timestamp.After(since) {
			filtered = append(filtered, log)
		}
	}

	// Hourly buckets, oldest first.
	requestsOverTime := make([]map[string]interface{}, periodHours)
	bucketIndex := make(map[int64]int, periodHours)
	for i := 0; i < periodHours; i++ {
		t := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		bucketIndex[t.Unix()] = i
		requestsOverTime[i] = map[string]interface{}{"time": t.Format("15:00"), "requests": 0}
	}
	for _, log := range filtered {
		key := log.Timestamp.UTC().Truncate(time.Hour).Unix()
		if i, ok := bucketIndex[key]; ok {
			requestsOverTime[i]["requests"] = requestsOverTime[i]["requests"].(int) + 1
		}
	}

	endpoints := make(map[string]int)
	for _, log := range filtered {
		endpoints[log.Path]++
	}

	statusNames := []string{"2xx Success", "4xx Client Error", "5xx Server Error"}
	statusCounts := make(map[string]int, len(statusNames))
	for _, log := range filtered {
		switch {
		case log.StatusCode >= 200 && log.StatusCode < 300:
			statusCounts[statusNames[0]]++
		case log.StatusCode >= 400 && log.StatusCode < 500:
			statusCounts[statusNames[1]]++
		case log.StatusCode >= 500:
			statusCounts[statusNames[2]]++
		}
	}
	statusCodes := make([]map[string]interface{}, 0, len(statusNames))
	for _, name := range statusNames {
		statusCodes = append(statusCodes, map[string]interface{}{"name": name, "value": statusCounts[name]})
	}

	responseTimeSum := make(map[string]time.Duration)
	responseCount := make(map[string]int)
	for _, log := range filtered {
		responseTimeSum[log.Path] += log.ResponseTime
		responseCount[log.Path]++
	}
	paths := make([]string, 0, len(responseTimeSum))
	for path := range responseTimeSum {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := responseTimeSum[path].Milliseconds() / int64(responseCount[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	recentErrors := make([]LogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
		Predictions:      s.predictionsLocked(),
	}
}
