package handlers

import (
	"net/http"

	"churn-predictor-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler serves the monitoring dashboard.
type MonitoringHandler struct {
	Service *services.MonitoringService
	Cache   *services.CachedPredictor
}

// NewMonitoringHandler creates a MonitoringHandler. cache may be nil when the
// predictor is not cached.
func NewMonitoringHandler(service *services.MonitoringService, cache *services.CachedPredictor) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
		Cache:   cache,
	}
}

// GetLogs returns aggregated request logs and prediction counters.
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	periodStr := c.DefaultQuery("period", "24h")
	var hours int

	switch periodStr {
	case "1h":
		hours = 1
	case "7d":
		hours = 24 * 7
	default:
		hours = 24
	}

	data := h.Service.GetDashboardData(hours)
	c.JSON(http.StatusOK, data)
}

// GetCacheStats reports prediction cache effectiveness.
func (h *MonitoringHandler) GetCacheStats(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "stats": h.Cache.Stats()})
}
