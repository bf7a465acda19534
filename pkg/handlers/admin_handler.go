package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"

	config "churn-predictor-api/configs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler handles administrator operations and owns the maintenance flag.
type AdminHandler struct {
	AdminUsername string
	AdminPassword string

	maintenance atomic.Bool
	logger      *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(cfg *config.Config, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		logger:        logger,
	}
}

// AdminCredentials is the request body of the admin endpoints.
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StartMaintenance turns maintenance mode on.
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	h.logger.Warn("maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

// StopMaintenance turns maintenance mode off.
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	h.logger.Info("maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

// GetHealthStatus reports the maintenance flag.
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": h.maintenance.Load()})
}

// HealthCheck answers external health checkers such as load balancers.
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MaintenanceMiddleware rejects prediction traffic with 503 while in
// maintenance. Health, admin and monitoring routes stay reachable.
func (h *AdminHandler) MaintenanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.maintenance.Load() {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Server is in maintenance mode"})
	}
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.AdminPassword)) == 1
	if h.AdminPassword == "" || !userOK || !passOK {
		h.logger.Warn("admin authentication failed", zap.String("username", input.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return false
	}
	return true
}
