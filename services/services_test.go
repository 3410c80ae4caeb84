package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// pngBytes sniffs as image/png
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func pngImage(name string) *utils.ImageFile {
	return &utils.ImageFile{
		Filename:    name,
		Extension:   ".png",
		ContentType: "image/png",
		Content:     pngBytes,
	}
}

// stepClock hands out strictly increasing timestamps
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// failingImageService is an image host that is always down
type failingImageService struct{}

func (failingImageService) UploadImage(context.Context, *utils.ImageFile) (string, error) {
	return "", errors.New("connection refused")
}

// fakeS3 records uploads in memory
type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (f *fakeS3) UploadFile(_ context.Context, key, contentType string, content []byte) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = content
	f.contentTypes[key] = contentType
	return nil
}

func (f *fakeS3) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
