// internal/services/storage_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/javajoker/coopmarket-backend/internal/config"
)

const uploadTimeout = 2 * time.Minute

// FileStorage persists uploaded files under a key and returns the URL they
// are served from.
type FileStorage interface {
	Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

func NewStorageService(ctx context.Context, cfg *config.Config) (FileStorage, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return newLocalStorage(cfg.Storage), nil
	case "s3":
		return newS3Storage(cfg.AWS)
	case "gcs":
		client, err := gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadWrite))
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		return &gcsStorage{client: client, bucket: cfg.GCS.Bucket, publicBaseURL: cfg.Storage.PublicBaseURL}, nil
	case "azure":
		client, err := azblob.NewClientFromConnectionString(cfg.Azure.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
		return &azureStorage{client: client, container: cfg.Azure.Container, publicBaseURL: cfg.Storage.PublicBaseURL}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// DetectContentType sniffs the leading bytes of body and rewinds it.
func DetectContentType(body io.ReadSeeker) (*mimetype.MIME, error) {
	mtype, err := mimetype.DetectReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	return mtype, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// Local disk

type localStorage struct {
	dir           string
	publicBaseURL string
}

func newLocalStorage(cfg config.StorageConfig) *localStorage {
	base := cfg.PublicBaseURL
	if base == "" {
		base = "/uploads"
	}
	return &localStorage{dir: cfg.LocalPath, publicBaseURL: base}
}

func (s *localStorage) Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(key))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return joinURL(s.publicBaseURL, key), nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// AWS S3

type s3Storage struct {
	client *s3.S3
	cfg    config.AWSConfig
}

func newS3Storage(cfg config.AWSConfig) (*s3Storage, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &s3Storage{client: s3.New(sess), cfg: cfg}, nil
}

func (s *s3Storage) Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.url(key), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *s3Storage) url(key string) string {
	if s.cfg.CloudFrontURL != "" {
		return joinURL(s.cfg.CloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.Region, key)
}

// Google Cloud Storage

type gcsStorage struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

func (s *gcsStorage) Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, key), nil
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

func (s *gcsStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file from GCS: %w", err)
	}
	return nil
}

// Azure Blob Storage

type azureStorage struct {
	client        *azblob.Client
	container     string
	publicBaseURL string
}

func (s *azureStorage) Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	if _, err := s.client.UploadStream(ctx, s.container, key, body, nil); err != nil {
		return "", fmt.Errorf("failed to upload to Azure: %w", err)
	}

	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, key), nil
	}
	return joinURL(joinURL(s.client.URL(), s.container), key), nil
}

func (s *azureStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("failed to delete file from Azure: %w", err)
	}
	return nil
}

// deleteStoredFile removes a file whose record is already gone. Failures
// leave an orphan behind and are only logged.
func deleteStoredFile(ctx context.Context, storage FileStorage, key string) {
	if storage == nil || key == "" {
		return
	}
	if err := storage.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to delete stored file")
	}
}
