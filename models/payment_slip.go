package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentSlip is an append-only record of an uploaded proof-of-payment image
type PaymentSlip struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ImageURL        string    `gorm:"type:text;not null" json:"image_url"`
	Amount          int       `gorm:"not null;default:0" json:"amount"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`
	OrderID         *string   `gorm:"type:varchar(36);index" json:"order_id,omitempty"` // may outlive its order
	UploadedByAdmin bool      `gorm:"not null;default:false" json:"uploaded_by_admin"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the PaymentSlip model
func (PaymentSlip) TableName() string {
	return "payment_slips"
}

// BeforeCreate assigns the opaque document id
func (p *PaymentSlip) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
