package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/services"
)

// TestNotification handles GET /api/v1/notifications/test - posts a test
// message to the operators' webhook and reports the outcome
func TestNotification(c *gin.Context) {
	notifier := services.GetNotifier()
	if notifier == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "notifier is not configured",
		})
		return
	}

	result := notifier.Test(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to send test notification",
			"error":   result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test notification sent successfully!",
	})
}
