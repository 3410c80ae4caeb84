package models

import (
	"time"
)

// Role values for UserProfile.Role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserProfile maps an authenticated principal to a role and display attributes
type UserProfile struct {
	UID         string     `gorm:"primaryKey;type:varchar(128)" json:"uid"` // Auth0 user ID (from 'sub' claim)
	Email       string     `gorm:"index;not null" json:"email"`
	DisplayName *string    `json:"display_name"`
	Phone       *string    `gorm:"type:varchar(10)" json:"phone"`
	Role        string     `gorm:"not null;default:'user'" json:"role"` // "user" or "admin"
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName specifies the table name for the UserProfile model
func (UserProfile) TableName() string {
	return "users"
}

// IsAdmin reports whether the profile carries the admin role
func (u *UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AllModels lists every persisted model for migrations
func AllModels() []interface{} {
	return []interface{}{&UserProfile{}, &Order{}, &PaymentSlip{}}
}
