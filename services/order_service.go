package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"gorm.io/gorm"
)

// OrderDraft is the customer-supplied part of a new order
type OrderDraft struct {
	FullName      string
	IDNumber      string
	ConnectID     string
	StudentID     *string
	Phone         string
	Notes         *string
	Type          models.OrderType
	Hours         int
	IncludeSystem bool
	Amount        int
}

// OrderPatch is a partial update of an order. Nil fields are left untouched;
// an empty StudentID or Notes clears the stored value.
type OrderPatch struct {
	FullName    *string
	IDNumber    *string
	ConnectID   *string
	StudentID   *string
	Phone       *string
	Notes       *string
	DownloadURL *string
}

// validate checks the contact numbers; the binding layer normally rejects bad
// ones first, but drafts can be built by other callers
func (d OrderDraft) validate() error {
	if err := utils.ValidateIDNumber(d.IDNumber); err != nil {
		return err
	}
	return utils.ValidatePhone(d.Phone)
}

func (p OrderPatch) validate() error {
	if p.IDNumber != nil {
		if err := utils.ValidateIDNumber(*p.IDNumber); err != nil {
			return err
		}
	}
	if p.Phone != nil {
		return utils.ValidatePhone(*p.Phone)
	}
	return nil
}

// OnlyDownloadURL reports whether the patch sets the download URL and nothing else
func (p OrderPatch) OnlyDownloadURL() bool {
	return p.DownloadURL != nil &&
		p.FullName == nil && p.IDNumber == nil && p.ConnectID == nil &&
		p.StudentID == nil && p.Phone == nil && p.Notes == nil
}

func (p OrderPatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.FullName != nil {
		updates["full_name"] = *p.FullName
	}
	if p.IDNumber != nil {
		updates["id_number"] = *p.IDNumber
	}
	if p.ConnectID != nil {
		updates["connect_id"] = *p.ConnectID
	}
	if p.StudentID != nil {
		updates["student_id"] = nullIfEmpty(*p.StudentID)
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	if p.Notes != nil {
		updates["notes"] = nullIfEmpty(*p.Notes)
	}
	if p.DownloadURL != nil {
		updates["download_url"] = *p.DownloadURL
	}
	return updates
}

// OrderService owns creation, mutation and status transitions of orders.
// It holds no order state of its own; the database is authoritative.
type OrderService struct {
	db       *gorm.DB
	images   ImageService
	notifier Notifier
	now      func() time.Time
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB, images ImageService, notifier Notifier) *OrderService {
	return &OrderService{
		db:       db,
		images:   images,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source (used by tests)
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// CreateOrder stores a new pending order without a payment slip.
// No notification is sent until a slip arrives.
func (s *OrderService) CreateOrder(ctx context.Context, ownerID string, draft OrderDraft) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}
	log.Printf("Creating new order for user %s (type=%s, amount=%d)", ownerID, draft.Type, draft.Amount)

	order := draft.toOrder(ownerID, s.now())
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return "", upstream("document store", fmt.Errorf("failed to create order: %w", err))
	}

	log.Printf("Order created with ID: %s", order.ID)
	return order.ID, nil
}

// CreateOrderWithSlip uploads the payment slip, then stores the order, a linked
// payment slip record, and notifies the operators. An upload failure aborts
// the whole operation; a notification failure never does.
func (s *OrderService) CreateOrderWithSlip(ctx context.Context, ownerID string, draft OrderDraft, slip *utils.ImageFile) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}
	log.Printf("Creating new order with payment slip for user: %s", ownerID)

	imageURL, err := s.images.UploadImage(ctx, slip)
	if err != nil {
		return "", upstream("image host", err)
	}
	log.Printf("Payment slip uploaded successfully")

	order := draft.toOrder(ownerID, s.now())
	order.PaymentSlipURL = &imageURL
	// the order and its slip record are stored together or not at all
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return upstream("document store", fmt.Errorf("failed to create order: %w", err))
		}
		return s.recordCustomerSlip(tx, order, imageURL)
	})
	if err != nil {
		return "", err
	}
	log.Printf("Order created with ID: %s", order.ID)

	s.notifyPayment(ctx, order, imageURL)
	return order.ID, nil
}

// UploadPaymentSlip attaches proof of payment to an existing order that has none yet
func (s *OrderService) UploadPaymentSlip(ctx context.Context, orderID string, slip *utils.ImageFile) error {
	log.Printf("Starting payment slip upload for order: %s", orderID)

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.HasPaymentSlip() {
		return fmt.Errorf("order %s already has a payment slip: %w", orderID, ErrInvalidState)
	}

	imageURL, err := s.images.UploadImage(ctx, slip)
	if err != nil {
		return upstream("image host", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			UpdateColumn("payment_slip_url", imageURL).Error; err != nil {
			return upstream("document store", fmt.Errorf("failed to attach payment slip: %w", err))
		}
		order.PaymentSlipURL = &imageURL
		return s.recordCustomerSlip(tx, order, imageURL)
	})
	if err != nil {
		order.PaymentSlipURL = nil
		return err
	}
	log.Printf("Order %s updated with payment slip URL", orderID)

	s.notifyPayment(ctx, order, imageURL)
	return nil
}

// UpdateOrder merges patch into the order. A completed order only accepts a
// patch consisting solely of the download URL.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	// read-then-write is not atomic; concurrent edits of one order are not expected
	if order.IsCompleted() && !patch.OnlyDownloadURL() {
		return fmt.Errorf("cannot update completed order %s: %w", orderID, ErrInvalidState)
	}

	updates := patch.updates()
	updates["updated_at"] = s.now()
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).UpdateColumns(updates).Error; err != nil {
		return upstream("document store", fmt.Errorf("failed to update order: %w", err))
	}

	log.Printf("Order %s updated successfully", orderID)
	return nil
}

// UpdateOrderDownloadURL sets the delivered work URL, whatever the order status
func (s *OrderService) UpdateOrderDownloadURL(ctx context.Context, orderID, downloadURL string) error {
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).UpdateColumns(map[string]interface{}{
		"download_url": downloadURL,
		"updated_at":   s.now(),
	}).Error; err != nil {
		return upstream("document store", fmt.Errorf("failed to update download URL: %w", err))
	}

	log.Printf("Order %s download URL updated", orderID)
	return nil
}

// UpdateOrderStatus overwrites the status. Any status may follow any other,
// including reopening a completed order.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if !status.Valid() {
		return &utils.ValidationError{Code: "INVALID_STATUS", Message: fmt.Sprintf("unknown order status %q", status)}
	}

	log.Printf("Updating order %s status to %s", orderID, status)
	result := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).UpdateColumn("status", status)
	if result.Error != nil {
		return upstream("document store", fmt.Errorf("failed to update order status: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

// DeleteOrder hard-deletes an order. Payment slips linked to it are kept.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	log.Printf("Deleting order with ID: %s", orderID)

	if _, err := s.findOrder(ctx, orderID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", orderID).Error; err != nil {
		return upstream("document store", fmt.Errorf("failed to delete order: %w", err))
	}

	log.Printf("Order %s deleted successfully", orderID)
	return nil
}

// GetOrderByID returns the order, or nil when it does not exist
func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return order, err
}

// GetOrders returns every order, newest first
func (s *OrderService) GetOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, "", nil)
}

// GetOrdersByStatus returns the orders in one status, newest first
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if !status.Valid() {
		return nil, &utils.ValidationError{Code: "INVALID_STATUS", Message: fmt.Sprintf("unknown order status %q", status)}
	}
	return s.queryOrders(ctx, "status", status)
}

// GetOrdersByUserID returns one user's orders, newest first
func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	return s.queryOrders(ctx, "user_id", userID)
}

// queryOrders filters on at most one column and sorts in memory, so the
// store never needs a composite (filter + sort) index.
func (s *OrderService) queryOrders(ctx context.Context, column string, value interface{}) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if column != "" {
		query = query.Where(column+" = ?", value)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, upstream("document store", fmt.Errorf("failed to query orders: %w", err))
	}

	sortNewestFirst(orders)
	log.Printf("Retrieved %d orders", len(orders))
	return orders, nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, upstream("document store", fmt.Errorf("failed to load order: %w", err))
	}
	return &order, nil
}

// recordCustomerSlip inserts the gallery record for a customer's slip within tx
func (s *OrderService) recordCustomerSlip(tx *gorm.DB, order *models.Order, imageURL string) error {
	slip := models.PaymentSlip{
		ImageURL:        imageURL,
		Amount:          order.Amount,
		OrderID:         &order.ID,
		UploadedByAdmin: false,
		CreatedAt:       s.now(),
	}
	if err := tx.Create(&slip).Error; err != nil {
		return upstream("document store", fmt.Errorf("failed to record payment slip: %w", err))
	}
	log.Printf("Payment slip record %s created for order %s", slip.ID, order.ID)
	return nil
}

// notifyPayment is best-effort: the outcome is logged and otherwise ignored
func (s *OrderService) notifyPayment(ctx context.Context, order *models.Order, imageURL string) {
	if s.notifier == nil {
		log.Printf("No notifier configured, skipping payment notification for order %s", order.ID)
		return
	}
	if !s.notifier.NotifyPaymentReceived(ctx, order.ID, order.Type.Label(), order.FullName, order.Amount, imageURL) {
		log.Printf("Failed to send payment notification for order %s; the order itself was saved", order.ID)
	}
}

func (d OrderDraft) toOrder(ownerID string, now time.Time) *models.Order {
	return &models.Order{
		UserID:        ownerID,
		FullName:      d.FullName,
		IDNumber:      d.IDNumber,
		ConnectID:     d.ConnectID,
		StudentID:     emptyToNil(d.StudentID),
		Phone:         d.Phone,
		Notes:         emptyToNil(d.Notes),
		Type:          d.Type,
		Hours:         d.Hours,
		IncludeSystem: d.IncludeSystem,
		Amount:        d.Amount,
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
	}
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
