package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/middleware"
	"github.com/kendall-kelly/volunteer-hours-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile.
// The role cannot be set through the API.
type UpdateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	DisplayName *string `json:"display_name" binding:"omitempty,min=1"`
	Phone       *string `json:"phone" binding:"omitempty,len=10,digits"`
}

func newUserProfileService() *services.UserProfileService {
	return services.NewUserProfileService(config.GetDB(), services.GetIdentityGateway())
}

// CreateUser handles POST /api/v1/users/me - ensures a profile exists for the caller
// This endpoint fetches the email and name from Auth0's /userinfo endpoint
func CreateUser(c *gin.Context) {
	auth0ID, ok := requireUserID(c)
	if !ok {
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "INVALID_TOKEN")
		return
	}

	userInfo, err := services.GetIdentityGateway().GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		log.Printf("Failed to fetch user info for %s: %v", auth0ID, err)
		respondError(c, http.StatusBadGateway, "AUTH_ERROR")
		return
	}
	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}

	principal := userInfo.Principal()
	// the token subject is authoritative, whatever /userinfo echoes back
	principal.UID = auth0ID

	profile, err := newUserProfileService().EnsureProfile(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND", "USER_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	auth0ID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := newUserProfileService().GetUserProfile(c.Request.Context(), auth0ID)
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND", "USER_NOT_FOUND")
		return
	}
	if profile == nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me - merges fields into the caller's
// profile, creating it when missing
func UpdateMyProfile(c *gin.Context) {
	auth0ID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	profile, err := newUserProfileService().UpdateUserProfile(c.Request.Context(), auth0ID, services.ProfilePatch{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND", "USER_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}
