package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"gorm.io/gorm"
)

// PaymentSlipService manages the gallery of payment slip images
type PaymentSlipService struct {
	db     *gorm.DB
	images ImageService
	now    func() time.Time
}

// NewPaymentSlipService creates a payment slip gallery service
func NewPaymentSlipService(db *gorm.DB, images ImageService) *PaymentSlipService {
	return &PaymentSlipService{
		db:     db,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source (used by tests)
func (s *PaymentSlipService) WithClock(now func() time.Time) *PaymentSlipService {
	s.now = now
	return s
}

// UploadAdminPaymentSlip stores a reference slip that is not linked to any order
func (s *PaymentSlipService) UploadAdminPaymentSlip(ctx context.Context, image *utils.ImageFile, notes *string) (string, error) {
	log.Println("Starting admin payment slip upload")

	imageURL, err := s.images.UploadImage(ctx, image)
	if err != nil {
		return "", upstream("image host", err)
	}

	slip := models.PaymentSlip{
		ImageURL:        imageURL,
		Amount:          0,
		Notes:           emptyToNil(notes),
		UploadedByAdmin: true,
		CreatedAt:       s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&slip).Error; err != nil {
		return "", upstream("document store", fmt.Errorf("failed to save payment slip: %w", err))
	}

	log.Printf("Admin payment slip saved with ID: %s", slip.ID)
	return slip.ID, nil
}

// GetAllPaymentSlips returns every slip, newest first
func (s *PaymentSlipService) GetAllPaymentSlips(ctx context.Context) ([]models.PaymentSlip, error) {
	var slips []models.PaymentSlip
	// a single sort with no filter needs no composite index, so the store sorts
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&slips).Error; err != nil {
		return nil, upstream("document store", fmt.Errorf("failed to query payment slips: %w", err))
	}

	log.Printf("Retrieved %d payment slips", len(slips))
	return slips, nil
}

// DeletePaymentSlip hard-deletes a slip record. Linked orders are not touched.
func (s *PaymentSlipService) DeletePaymentSlip(ctx context.Context, slipID string) error {
	log.Printf("Deleting payment slip with ID: %s", slipID)

	var slip models.PaymentSlip
	if err := s.db.WithContext(ctx).First(&slip, "id = ?", slipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment slip %s: %w", slipID, ErrNotFound)
		}
		return upstream("document store", fmt.Errorf("failed to load payment slip: %w", err))
	}

	if err := s.db.WithContext(ctx).Delete(&slip).Error; err != nil {
		return upstream("document store", fmt.Errorf("failed to delete payment slip: %w", err))
	}

	log.Println("Payment slip deleted successfully")
	return nil
}
