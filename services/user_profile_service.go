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
	"gorm.io/gorm/clause"
)

// ProfilePatch is a non-destructive profile update. The role is not part of it;
// promotion to admin happens outside this API.
type ProfilePatch struct {
	Email       *string
	DisplayName *string
	Phone       *string
}

func (p ProfilePatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.DisplayName != nil {
		updates["display_name"] = *p.DisplayName
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	return updates
}

func (p ProfilePatch) validate() error {
	if p.Phone != nil && *p.Phone != "" {
		return utils.ValidatePhone(*p.Phone)
	}
	return nil
}

// UserProfileService maps authenticated principals to roles and display attributes
type UserProfileService struct {
	db       *gorm.DB
	identity IdentityGateway
	now      func() time.Time
}

// NewUserProfileService creates a user profile service
func NewUserProfileService(db *gorm.DB, identity IdentityGateway) *UserProfileService {
	return &UserProfileService{
		db:       db,
		identity: identity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureProfile creates a plain user profile for the principal if none exists
func (s *UserProfileService) EnsureProfile(ctx context.Context, principal Principal) (*models.UserProfile, error) {
	existing, err := s.GetUserProfile(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	displayName := principal.DisplayName
	if displayName == "" {
		displayName = utils.EmailLocalPart(principal.Email)
	}

	log.Printf("Creating user profile for %s", principal.UID)
	profile := models.UserProfile{
		UID:         principal.UID,
		Email:       principal.Email,
		DisplayName: &displayName,
		Role:        models.RoleUser,
		CreatedAt:   s.now(),
	}
	created, err := s.createIfAbsent(ctx, &profile)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.GetUserProfile(ctx, principal.UID)
	}
	return &profile, nil
}

// createIfAbsent inserts profile unless a row with the same uid already exists,
// reporting whether it was inserted
func (s *UserProfileService) createIfAbsent(ctx context.Context, profile *models.UserProfile) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(profile)
	if result.Error != nil {
		return false, upstream("document store", fmt.Errorf("failed to create user profile: %w", result.Error))
	}
	return result.RowsAffected > 0, nil
}

// GetUserProfile returns the profile, or nil when none exists
func (s *UserProfileService) GetUserProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, upstream("document store", fmt.Errorf("failed to load user profile: %w", err))
	}
	return &profile, nil
}

// UpdateUserProfile merges patch into the profile, creating it when missing
func (s *UserProfileService) UpdateUserProfile(ctx context.Context, uid string, patch ProfilePatch) (*models.UserProfile, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	existing, err := s.GetUserProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		log.Printf("Creating new user profile for %s", uid)
		profile := models.UserProfile{
			UID:         uid,
			DisplayName: patch.DisplayName,
			Phone:       patch.Phone,
			Role:        models.RoleUser,
			CreatedAt:   s.now(),
		}
		if patch.Email != nil {
			profile.Email = *patch.Email
		}
		created, err := s.createIfAbsent(ctx, &profile)
		if err != nil {
			return nil, err
		}
		if created {
			return &profile, nil
		}
		// created concurrently; merge the patch into that row instead
	}

	updates := patch.updates()
	updates["updated_at"] = s.now()
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("uid = ?", uid).UpdateColumns(updates).Error; err != nil {
		return nil, upstream("document store", fmt.Errorf("failed to update user profile: %w", err))
	}

	log.Printf("User profile %s updated", uid)
	return s.GetUserProfile(ctx, uid)
}

// IsAdmin reports whether uid has the admin role; lookup failures count as no
func (s *UserProfileService) IsAdmin(ctx context.Context, uid string) bool {
	profile, err := s.GetUserProfile(ctx, uid)
	if err != nil {
		log.Printf("Error checking if user is admin: %v", err)
		return false
	}
	return profile != nil && profile.IsAdmin()
}

// CheckEmailExists is an advisory pre-check for registration. Malformed
// addresses and lookup failures both report false; the identity provider
// still enforces uniqueness when the account is created.
func (s *UserProfileService) CheckEmailExists(ctx context.Context, email string) bool {
	if !utils.LooksLikeEmail(email) {
		log.Printf("Invalid email format: %q", email)
		return false
	}
	if s.identity == nil {
		return false
	}

	exists, err := s.identity.CheckEmailExists(ctx, email)
	if err != nil {
		log.Printf("Error checking if email exists: %v", err)
		return false
	}
	return exists
}
