package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

// CreateOrderRequest represents the request body for creating an order.
// The same fields arrive as multipart form values on /orders/with-slip.
type CreateOrderRequest struct {
	FullName      string           `json:"full_name" form:"full_name" binding:"required"`
	IDNumber      string           `json:"id_number" form:"id_number" binding:"required,len=13,digits"`
	ConnectID     string           `json:"connect_id" form:"connect_id" binding:"required"`
	StudentID     *string          `json:"student_id" form:"student_id"`
	Phone         string           `json:"phone" form:"phone" binding:"required,len=10,digits"`
	Notes         *string          `json:"notes" form:"notes"`
	Type          models.OrderType `json:"type" form:"type" binding:"required"`
	Hours         int              `json:"hours" form:"hours"`
	IncludeSystem bool             `json:"include_system" form:"include_system"`
}

// UpdateOrderRequest represents an owner's edit of the contact fields of an order
type UpdateOrderRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,min=1"`
	IDNumber  *string `json:"id_number" binding:"omitempty,len=13,digits"`
	ConnectID *string `json:"connect_id" binding:"omitempty,min=1"`
	StudentID *string `json:"student_id"`
	Phone     *string `json:"phone" binding:"omitempty,len=10,digits"`
	Notes     *string `json:"notes"`
}

// UpdateOrderStatusRequest represents an administrator's status change
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateDownloadURLRequest represents an administrator attaching the delivered work
type UpdateDownloadURLRequest struct {
	DownloadURL string `json:"download_url" binding:"required,url"`
}

func newOrderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), services.GetImageService(), services.GetNotifier())
}

// bindingErrorCode picks the most specific error code for a failed request binding
func bindingErrorCode(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].StructField() {
		case "IDNumber":
			return "INVALID_ID_NUMBER"
		case "Phone":
			return "INVALID_PHONE"
		case "Type":
			return "INVALID_ORDER_TYPE"
		case "Status":
			return "INVALID_STATUS"
		}
	}
	return "VALIDATION_ERROR"
}

// toDraft checks the type and hours and prices the order
func (req CreateOrderRequest) toDraft() (services.OrderDraft, error) {
	if !req.Type.Valid() {
		return services.OrderDraft{}, &utils.ValidationError{Code: "INVALID_ORDER_TYPE", Message: "unknown order type"}
	}
	if req.Type == models.OrderTypeHourly && (req.Hours < 1 || req.Hours > models.PackageHours) {
		return services.OrderDraft{}, &utils.ValidationError{Code: "INVALID_HOURS", Message: "hours must be between 1 and 36"}
	}

	hours := models.NormalizeHours(req.Type, req.Hours)
	return services.OrderDraft{
		FullName:      req.FullName,
		IDNumber:      req.IDNumber,
		ConnectID:     req.ConnectID,
		StudentID:     req.StudentID,
		Phone:         req.Phone,
		Notes:         req.Notes,
		Type:          req.Type,
		Hours:         hours,
		IncludeSystem: req.IncludeSystem,
		Amount:        models.CalculateAmount(req.Type, hours, req.IncludeSystem),
	}, nil
}

// canViewOrder reports whether the caller owns the order or is an administrator
func canViewOrder(c *gin.Context, userID string, order *models.Order) bool {
	if order.UserID == userID {
		return true
	}
	return services.NewUserProfileService(config.GetDB(), nil).IsAdmin(c.Request.Context(), userID)
}

// CreateOrder handles POST /api/v1/orders - creates a pending order without a payment slip
func CreateOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	orders := newOrderService()
	orderID, err := orders.CreateOrder(c.Request.Context(), userID, draft)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	order, err := orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil || order == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// CreateOrderWithSlip handles POST /api/v1/orders/with-slip - multipart order
// fields plus a "payment_slip" image. The operators are notified on success.
func CreateOrderWithSlip(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	slip, ok := readUploadedImage(c, "payment_slip")
	if !ok {
		return
	}

	orders := newOrderService()
	orderID, err := orders.CreateOrderWithSlip(c.Request.Context(), userID, draft, slip)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	order, err := orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil || order == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetMyOrders handles GET /api/v1/orders - lists the caller's orders, newest first
func GetMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := newOrderService().GetOrdersByUserID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - visible to the owner and to administrators
func GetOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	order, err := newOrderService().GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}
	if order == nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND")
		return
	}
	if !canViewOrder(c, userID, order) {
		respondError(c, http.StatusForbidden, "FORBIDDEN")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id - the owner edits contact fields
// of an order that is not completed yet
func UpdateOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	orders := newOrderService()
	order, err := orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}
	if order == nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND")
		return
	}
	if order.UserID != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN")
		return
	}

	patch := services.OrderPatch{
		FullName:  req.FullName,
		IDNumber:  req.IDNumber,
		ConnectID: req.ConnectID,
		StudentID: req.StudentID,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
	if err := orders.UpdateOrder(c.Request.Context(), order.ID, patch); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	updated, err := orders.GetOrderByID(c.Request.Context(), order.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// UploadOrderPaymentSlip handles POST /api/v1/orders/:id/payment-slip - attaches
// the "payment_slip" image to an order that has none yet
func UploadOrderPaymentSlip(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders := newOrderService()
	order, err := orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "SLIP_ALREADY_ATTACHED")
		return
	}
	if order == nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND")
		return
	}
	if order.UserID != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN")
		return
	}

	slip, ok := readUploadedImage(c, "payment_slip")
	if !ok {
		return
	}

	if err := orders.UploadPaymentSlip(c.Request.Context(), order.ID, slip); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "SLIP_ALREADY_ATTACHED")
		return
	}

	updated, err := orders.GetOrderByID(c.Request.Context(), order.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// ListAllOrders handles GET /api/v1/admin/orders?status= - every order, or one status
func ListAllOrders(c *gin.Context) {
	orders := newOrderService()

	var (
		result []models.Order
		err    error
	)
	if status := c.Query("status"); status != "" {
		result, err = orders.GetOrdersByStatus(c.Request.Context(), models.OrderStatus(status))
	} else {
		result, err = orders.GetOrders(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// UpdateOrderStatus handles PATCH /api/v1/admin/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	orders := newOrderService()
	if err := orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	order, err := orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil || order == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderDownloadURL handles PATCH /api/v1/admin/orders/:id/download-url.
// Allowed in every status, including completed.
func UpdateOrderDownloadURL(c *gin.Context) {
	var req UpdateDownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingErrorCode(err))
		return
	}

	orders := newOrderService()
	if err := orders.UpdateOrderDownloadURL(c.Request.Context(), c.Param("id"), req.DownloadURL); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
		return
	}

	order, err := orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil || order == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/admin/orders/:id
func DeleteOrder(c *gin.Context) {
	if err := newOrderService().DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND", "ORDER_COMPLETED")
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
