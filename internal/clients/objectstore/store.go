// internal/clients/objectstore/store.go
package objectstore

import (
	"context"
	"time"

	commonaws "github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/aws"
	commonerrors "github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/errors"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/metrics"
)

// Store persists uploaded answer documents and hands back addressable URLs.
type Store interface {
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// S3Store backs Store with S3. Keys are built by the caller; the store
// does not impose a layout.
type S3Store struct {
	s3     *commonaws.S3Client
	logger logger.Logger
}

func NewS3Store(s3 *commonaws.S3Client, log logger.Logger) *S3Store {
	return &S3Store{
		s3:     s3,
		logger: log.WithFields(map[string]interface{}{"component": "object-store"}),
	}
}

func (s *S3Store) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	if err := s.s3.PutObject(ctx, bucket, key, body, contentType); err != nil {
		metrics.DocumentUploads.WithLabelValues(bucket, "error").Inc()
		s.logger.Error("document upload failed", map[string]interface{}{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return commonerrors.NewStorageUploadFailedError(key, err)
	}
	metrics.DocumentUploads.WithLabelValues(bucket, "ok").Inc()
	return nil
}

func (s *S3Store) SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return s.s3.PresignGetURL(ctx, bucket, key, expiry)
}
