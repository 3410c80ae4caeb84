package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/middleware"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

// respondError writes the standard error envelope with the localized message for code
func respondError(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": utils.LocalizedMessage(code),
		},
	})
}

// respondServiceError maps a service error to a status code. notFoundCode and
// invalidStateCode name the domain-specific codes for the sentinel errors.
func respondServiceError(c *gin.Context, err error, notFoundCode, invalidStateCode string) {
	var validationErr *utils.ValidationError
	var upstreamErr *services.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Code)
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, notFoundCode)
	case errors.Is(err, services.ErrInvalidState):
		respondError(c, http.StatusConflict, invalidStateCode)
	case errors.As(err, &upstreamErr) && upstreamErr.Service == "image host":
		log.Printf("Image host failure: %v", err)
		respondError(c, http.StatusBadGateway, "UPLOAD_FAILED")
	default:
		log.Printf("Request failed: %v", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
	}
}

// requireUserID extracts the caller's principal id, writing a 401 when absent
func requireUserID(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED")
		return "", false
	}
	return userID, true
}

// readUploadedImage reads and validates the multipart image field
func readUploadedImage(c *gin.Context, field string) (*utils.ImageFile, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED")
		return nil, false
	}

	image, err := utils.ReadImageFile(fileHeader)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			respondError(c, http.StatusBadRequest, validationErr.Code)
			return nil, false
		}
		log.Printf("Failed to read uploaded file: %v", err)
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED")
		return nil, false
	}
	return image, true
}
