package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/session"
)

// RecordSessionActivity handles POST /api/v1/session/activity - the client
// reports user interaction, restarting the idle clock
func RecordSessionActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tracker := session.GetTracker()
	if tracker == nil {
		respondError(c, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE")
		return
	}

	if err := tracker.RecordActivity(c.Request.Context(), userID); err != nil {
		log.Printf("Failed to record session activity: %v", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	state, err := tracker.Status(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to read session status: %v", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
	})
}

// GetSessionStatus handles GET /api/v1/session/status - remaining idle time,
// whether the warning window has begun, and whether the session expired
func GetSessionStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tracker := session.GetTracker()
	if tracker == nil {
		respondError(c, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE")
		return
	}

	state, err := tracker.Check(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to check session: %v", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}
	if state.Expired {
		respondError(c, http.StatusUnauthorized, "SESSION_EXPIRED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
	})
}
