package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Storage hosts posting photos in a MinIO/S3 bucket.
type S3Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

var _ domain.MediaStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, cfg *config.MinioConfig, log *logger.Logger) (*S3Storage, error) {
	l := log.Named("s3")
	l.Info("Initializing S3 MinIO storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("use_ssl", cfg.UseSSL))

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.Bucket)
		if errExists != nil || !exists {
			l.Error("Failed to make or verify bucket", zap.String("bucket", cfg.Bucket), zap.Error(err), zap.NamedError("exists_error", errExists))
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", cfg.Bucket, err)
		}
		l.Info("Bucket already exists", zap.String("bucket", cfg.Bucket))
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &S3Storage{client: client, bucket: cfg.Bucket, baseURL: baseURL, logger: l}, nil
}

// Upload stores img under preset and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, preset string, img domain.Image) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("%w: photo is empty", domain.ErrValidationFailure)
	}
	key := objectKey(preset, uuid.NewString(), img.MIMEType)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.MIMEType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: upload %s: %w", domain.ErrNetworkFailure, key, err)
	}

	url := publicURL(s.baseURL, info.Key)
	s.logger.Info("Photo uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size), zap.String("url", url))
	return url, nil
}

func objectKey(preset, id, mime string) string {
	preset = strings.Trim(preset, "/")
	if preset == "" {
		return id + extension(mime)
	}
	return preset + "/" + id + extension(mime)
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
