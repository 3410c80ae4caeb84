package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

// ImageService hosts an image and returns a publicly fetchable URL for it
type ImageService interface {
	UploadImage(ctx context.Context, image *utils.ImageFile) (string, error)
}

var imageServiceInstance ImageService

// InitImageService sets the process-wide image host
func InitImageService(service ImageService) ImageService {
	imageServiceInstance = service
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// NewS3ImageService creates an image host backed by S3
func NewS3ImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage uploads an image to S3 and returns its public URL
func (s *S3ImageService) UploadImage(ctx context.Context, image *utils.ImageFile) (string, error) {
	key := newSlipKey(image.Extension)
	if err := s.s3Service.UploadFile(ctx, key, image.ContentType, image.Content); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s.s3Service.PublicURL(key), nil
}

// LocalImageService stores images on local disk and serves them from /api/v1/uploads.
// Used in development when no bucket is configured.
type LocalImageService struct {
	dir     string
	baseURL string
}

// NewLocalImageService creates a disk-backed image host. baseURL is the
// externally visible origin of this API, e.g. "http://localhost:8080".
func NewLocalImageService(dir, baseURL string) *LocalImageService {
	return &LocalImageService{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// UploadImage writes the image to the upload directory
func (s *LocalImageService) UploadImage(_ context.Context, image *utils.ImageFile) (string, error) {
	filename, err := utils.SaveImageFile(image, s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s.baseURL + utils.GetImageURL(filename), nil
}

// DataURIFallbackImageService never fails: when the wrapped host is unreachable
// the image is embedded as a data URI instead. Not for production use.
type DataURIFallbackImageService struct {
	primary ImageService
}

// WithDataURIFallback wraps an image host with the data URI fallback
func WithDataURIFallback(primary ImageService) *DataURIFallbackImageService {
	return &DataURIFallbackImageService{primary: primary}
}

// UploadImage tries the primary host and falls back to a data URI
func (s *DataURIFallbackImageService) UploadImage(ctx context.Context, image *utils.ImageFile) (string, error) {
	if s.primary != nil {
		url, err := s.primary.UploadImage(ctx, image)
		if err == nil {
			return url, nil
		}
		log.Printf("Image host upload failed, falling back to data URL: %v", err)
	}
	return utils.DataURI(image), nil
}
