package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	statusCode := http.StatusOK

	if h.db != nil {
		if err := h.db.Raw("SELECT 1").Error; err != nil {
			logrus.Errorf("Database health check failed: %v", err)
			status = "error"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
