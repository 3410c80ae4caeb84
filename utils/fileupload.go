package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

var (
	// UploadDir is the directory where uploaded files are stored
	// Can be overridden for testing
	UploadDir = "./uploads"

	// allowedImageTypes maps accepted extensions to the MIME type the content must sniff as
	allowedImageTypes = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".webp": "image/webp",
	}
)

// ImageFile is an uploaded image read fully into memory
type ImageFile struct {
	Filename    string
	Extension   string
	ContentType string
	Content     []byte
}

// ValidateImageFile validates the uploaded file extension and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedImageTypes[ext]; !ok {
		return &ValidationError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG, JPEG and WEBP files are allowed",
		}
	}

	return nil
}

// ReadImageFile validates the upload and reads it, checking that the bytes
// really are the image type the extension claims
func ReadImageFile(fileHeader *multipart.FileHeader) (*ImageFile, error) {
	if err := ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			fmt.Printf("warning: failed to close source file: %v\n", closeErr)
		}
	}()

	content, err := io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxFileSize {
		return nil, &ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	detected := mimetype.Detect(content)
	if !detected.Is(allowedImageTypes[ext]) {
		return nil, &ValidationError{
			Code:    "INVALID_FILE_CONTENT",
			Message: fmt.Sprintf("File content (%s) does not match its %s extension", detected.String(), ext),
		}
	}

	return &ImageFile{
		Filename:    filepath.Base(fileHeader.Filename),
		Extension:   ext,
		ContentType: allowedImageTypes[ext],
		Content:     content,
	}, nil
}

// SaveImageFile writes the image to uploadDir under a fresh unique name
// Returns the generated filename
func SaveImageFile(image *ImageFile, uploadDir string) (filename string, err error) {
	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename = uuid.NewString() + image.Extension
	fullPath := filepath.Join(uploadDir, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, bytes.NewReader(image.Content)); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// DataURI embeds the image directly, for use when no image host is reachable
func DataURI(image *ImageFile) string {
	return fmt.Sprintf("data:%s;base64,%s", image.ContentType, base64.StdEncoding.EncodeToString(image.Content))
}

// ContentTypeForFilename returns the MIME type for a stored image name, or "" if unsupported
func ContentTypeForFilename(filename string) string {
	return allowedImageTypes[strings.ToLower(filepath.Ext(filename))]
}

// GetImageURL returns the URL path for accessing the uploaded image
func GetImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", filename)
}
