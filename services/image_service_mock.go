package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	uploadedImages map[string][]byte // map of image URL to file content
	fail           bool
	mu             sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		uploadedImages: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// FailUploads makes every following upload return an error
func (m *MockImageService) FailUploads(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// UploadImage simulates uploading an image
func (m *MockImageService) UploadImage(_ context.Context, image *utils.ImageFile) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return "", errors.New("mock image host unavailable")
	}

	url := fmt.Sprintf("https://cdn.example.com/volunteer_slips/%d_%s", len(m.uploadedImages)+1, image.Filename)
	m.uploadedImages[url] = image.Content
	return url, nil
}

// GetUploadedImages returns all uploaded images (for testing assertions)
func (m *MockImageService) GetUploadedImages() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent race conditions
	images := make(map[string][]byte, len(m.uploadedImages))
	for k, v := range m.uploadedImages {
		images[k] = v
	}
	return images
}

// ImageExists checks if an image URL was handed out by this mock
func (m *MockImageService) ImageExists(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedImages[url]
	return exists
}
