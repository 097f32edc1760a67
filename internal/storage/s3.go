package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains configuration for S3-compatible object storage.
// A custom Endpoint targets non-AWS providers (Cloudflare R2, MinIO).
type S3Config struct {
	Endpoint    string // optional, empty for AWS S3
	Region      string
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

// S3Storage implements Storage on an S3-compatible bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage creates a new S3-backed storage implementation.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.AccessKeyID == "" || cfg.SecretKey == "" {
		return nil, ErrS3CredentialsRequired
	}
	if cfg.BucketName == "" {
		return nil, ErrS3BucketRequired
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	credsProvider := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretKey,
		"",
	)

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credsProvider),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client: client,
		bucket: cfg.BucketName,
	}, nil
}

// Put stores an artifact in the bucket.
func (s *S3Storage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.URL(key), nil
}

// Get retrieves an artifact from the bucket.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get from S3: %w", err)
	}

	return result.Body, nil
}

// Delete removes an artifact from the bucket.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// URL returns the object location for logging and reports.
func (s *S3Storage) URL(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// Exists checks if an artifact exists in the bucket.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence in S3: %w", err)
	}

	return true, nil
}

// isNotFoundError checks if an error indicates the object doesn't exist.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}
