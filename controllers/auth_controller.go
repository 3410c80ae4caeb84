package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/services"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PasswordResetRequest represents the request body for a password reset email
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// respondIdentityError maps an identity provider failure to a status and localized message
func respondIdentityError(c *gin.Context, err error) {
	log.Printf("Identity provider error: %v", err)

	switch services.IdentityKind(err) {
	case services.IdentityInvalidCredential:
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIAL")
	case services.IdentityEmailInUse:
		respondError(c, http.StatusConflict, "EMAIL_IN_USE")
	case services.IdentityTooManyRequests:
		respondError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
	case services.IdentityWeakPassword:
		respondError(c, http.StatusBadRequest, "WEAK_PASSWORD")
	case services.IdentityInvalidEmail:
		respondError(c, http.StatusBadRequest, "INVALID_EMAIL")
	case services.IdentityNetworkFailure:
		respondError(c, http.StatusBadGateway, "NETWORK_FAILURE")
	default:
		respondError(c, http.StatusInternalServerError, "AUTH_ERROR")
	}
}

// Register handles POST /api/v1/auth/register - creates the account and its user profile
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}

	principal, err := services.GetIdentityGateway().Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	profile, err := newUserProfileService().EnsureProfile(c.Request.Context(), *principal)
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND", "USER_NOT_FOUND")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    profile,
	})
}

// Login handles POST /api/v1/auth/login - exchanges email and password for tokens
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	identity := services.GetIdentityGateway()
	session, err := identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	// Profiles are normally created on registration; accounts made elsewhere get one here
	if userInfo, err := identity.GetUserInfo(c.Request.Context(), session.AccessToken); err != nil {
		log.Printf("Could not load user info after sign-in: %v", err)
	} else if _, err := newUserProfileService().EnsureProfile(c.Request.Context(), userInfo.Principal()); err != nil {
		log.Printf("Could not ensure user profile after sign-in: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset
func RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}

	if err := services.GetIdentityGateway().SendPasswordResetEmail(c.Request.Context(), req.Email); err != nil {
		respondIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"email": req.Email,
			"sent":  true,
		},
	})
}

// CheckEmailExists handles GET /api/v1/auth/email-exists?email= - an advisory
// registration pre-check; malformed addresses and lookup failures report false
func CheckEmailExists(c *gin.Context) {
	email := c.Query("email")
	exists := newUserProfileService().CheckEmailExists(c.Request.Context(), email)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"email":  email,
			"exists": exists,
		},
	})
}
