// internal/interfaces/http/handlers/settings.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/settings"
)

// SettingsHandler handles store-wide runtime flags
type SettingsHandler struct {
	settingsService *settings.Service
	config          *config.Config
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settings.NewService(redisClient, cfg, logger),
		config:          cfg,
	}
}

// OrderingToggleRequest represents the ordering switch payload
type OrderingToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GetOrderingEnabled handles GET /admin/settings/ordering
func (h *SettingsHandler) GetOrderingEnabled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"ordering_enabled": h.settingsService.OrderingEnabled(c.Request.Context()),
		},
	})
}

// SetOrderingEnabled handles PUT /admin/settings/ordering
func (h *SettingsHandler) SetOrderingEnabled(c *gin.Context) {
	var req OrderingToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.settingsService.SetOrderingEnabled(c.Request.Context(), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update ordering flag",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ordering flag updated successfully",
		"data": gin.H{
			"ordering_enabled": *req.Enabled,
		},
	})
}
