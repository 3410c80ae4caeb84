package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appConfig "github.com/kendall-kelly/volunteer-hours-api/config"
)

// slipKeyPrefix is the bucket folder holding payment slip images
const slipKeyPrefix = "volunteer_slips"

// S3Interface defines the interface for S3 operations
type S3Interface interface {
	UploadFile(ctx context.Context, key, contentType string, content []byte) error
	PublicURL(key string) string
}

// S3Service handles all S3-related operations
type S3Service struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// InitS3Service initializes the S3 service with AWS credentials
func InitS3Service(cfg *appConfig.Config) (*S3Service, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Service{
		client:        s3.NewFromConfig(awsConfig),
		bucket:        cfg.AWSS3Bucket,
		region:        cfg.AWSRegion,
		publicBaseURL: strings.TrimSuffix(cfg.AWSS3PublicBaseURL, "/"),
	}, nil
}

// UploadFile stores content under key
func (s *S3Service) UploadFile(ctx context.Context, key, contentType string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
		// Note: ACL is not set here - the bucket policy grants public read on the slips folder
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// PublicURL returns the publicly fetchable URL of an object.
// A configured CDN base URL takes precedence over the bucket's virtual-hosted URL.
func (s *S3Service) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// newSlipKey builds a collision-free object key keeping the original extension
func newSlipKey(extension string) string {
	return fmt.Sprintf("%s/%s%s", slipKeyPrefix, uuid.NewString(), extension)
}
