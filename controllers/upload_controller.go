package controllers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

// uploadImageService returns the image host for the proxy endpoint. Outside
// production an unreachable host degrades to an inline data URI.
func uploadImageService() services.ImageService {
	images := services.GetImageService()
	if cfg := config.GetConfig(); cfg != nil && cfg.IsProduction() {
		return images
	}
	return services.WithDataURIFallback(images)
}

// UploadImage handles POST /api/v1/uploads - stores the multipart "file" image
// on the image host and returns its public URL
func UploadImage(c *gin.Context) {
	image, ok := readUploadedImage(c, "file")
	if !ok {
		return
	}

	images := uploadImageService()
	if images == nil {
		log.Println("No image host configured")
		respondError(c, http.StatusServiceUnavailable, "UPLOAD_FAILED")
		return
	}

	url, err := images.UploadImage(c.Request.Context(), image)
	if err != nil {
		log.Printf("Image upload failed: %v", err)
		respondError(c, http.StatusBadGateway, "UPLOAD_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"url": url,
		},
	})
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves images stored by the local image host
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME")
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME")
		return
	}

	contentType := utils.ContentTypeForFilename(filename)
	if contentType == "" {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_FORMAT")
		return
	}

	// Construct full file path
	filePath := filepath.Join(utils.UploadDir, filename)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND")
		return
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
