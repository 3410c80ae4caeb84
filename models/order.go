package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderType is the kind of service purchased
type OrderType string

const (
	OrderTypeHourly  OrderType = "hourly"
	OrderTypePackage OrderType = "package"
	OrderTypeSystem  OrderType = "system"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// PackageHours is the fixed hour count of the package order type
const PackageHours = 36

// Order represents a purchased unit of volunteer-hour work
type Order struct {
	ID             string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string      `gorm:"not null;index" json:"user_id"` // owner principal id, immutable
	FullName       string      `gorm:"not null" json:"full_name"`
	IDNumber       string      `gorm:"type:varchar(13);not null" json:"id_number"`
	ConnectID      string      `gorm:"not null" json:"connect_id"`
	StudentID      *string     `json:"student_id"`
	Phone          string      `gorm:"type:varchar(10);not null" json:"phone"`
	Notes          *string     `gorm:"type:text" json:"notes"`
	Type           OrderType   `gorm:"type:varchar(16);not null" json:"type"` // immutable
	Hours          int         `gorm:"not null;default:0" json:"hours"`
	IncludeSystem  bool        `gorm:"not null;default:false" json:"include_system"`
	Amount         int         `gorm:"not null" json:"amount"`
	Status         OrderStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaymentSlipURL *string     `gorm:"type:text" json:"payment_slip_url"` // set at most once
	DownloadURL    *string     `gorm:"type:text" json:"download_url"`     // admin only
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      *time.Time  `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns the opaque document id
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IsCompleted reports whether the order is locked against edits
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// HasPaymentSlip reports whether proof of payment is attached
func (o *Order) HasPaymentSlip() bool {
	return o.PaymentSlipURL != nil && *o.PaymentSlipURL != ""
}

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeHourly, OrderTypePackage, OrderTypeSystem:
		return true
	}
	return false
}

// Label returns the customer-facing Thai name of the order type
func (t OrderType) Label() string {
	switch t {
	case OrderTypeHourly:
		return "บริการรายชั่วโมง"
	case OrderTypePackage:
		return "แพ็คเกจ 36 ชั่วโมง"
	case OrderTypeSystem:
		return "บริการกรอกข้อมูลลงระบบ"
	default:
		return string(t)
	}
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted:
		return true
	}
	return false
}
