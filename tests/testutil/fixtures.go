package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PNGBytes is the smallest header that sniffs as image/png
var PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// NewTestDB opens a migrated in-memory sqlite database and installs it as the global DB
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// every connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// MultipartImage builds a multipart body with form fields and one file part.
// It returns the body and its Content-Type header.
func MultipartImage(t *testing.T, field, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

// CreateProfile inserts a user profile with the given role
func CreateProfile(t *testing.T, db *gorm.DB, uid, email, role string) *models.UserProfile {
	t.Helper()

	profile := &models.UserProfile{UID: uid, Email: email, Role: role}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	return profile
}
