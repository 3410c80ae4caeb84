package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/services"
)

func newPaymentSlipService() *services.PaymentSlipService {
	return services.NewPaymentSlipService(config.GetDB(), services.GetImageService())
}

// ListPaymentSlips handles GET /api/v1/admin/payment-slips - the whole gallery, newest first
func ListPaymentSlips(c *gin.Context) {
	slips, err := newPaymentSlipService().GetAllPaymentSlips(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SLIP_NOT_FOUND", "SLIP_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    slips,
	})
}

// UploadPaymentSlip handles POST /api/v1/admin/payment-slips - multipart
// "image" plus optional "notes"; the slip is not linked to any order
func UploadPaymentSlip(c *gin.Context) {
	image, ok := readUploadedImage(c, "image")
	if !ok {
		return
	}

	var notes *string
	if n := strings.TrimSpace(c.PostForm("notes")); n != "" {
		notes = &n
	}

	slipID, err := newPaymentSlipService().UploadAdminPaymentSlip(c.Request.Context(), image, notes)
	if err != nil {
		respondServiceError(c, err, "SLIP_NOT_FOUND", "SLIP_NOT_FOUND")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id": slipID,
		},
	})
}

// DeletePaymentSlip handles DELETE /api/v1/admin/payment-slips/:id
func DeletePaymentSlip(c *gin.Context) {
	if err := newPaymentSlipService().DeletePaymentSlip(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "SLIP_NOT_FOUND", "SLIP_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":      c.Param("id"),
			"deleted": true,
		},
	})
}
