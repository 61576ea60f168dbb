package s3storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Drakz0n/CommFlow/internal/config"
)

const archiveContentType = "application/zip"

// Storage uploads data-directory export archives to an S3-compatible bucket.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client from the S3 section of the Config.
func New(cfg config.S3Config) (*Storage, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("init minio: COMMFLOW_S3_ENDPOINT is not set")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string { return s.bucket }

// EnsureBucket creates the export bucket if it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// UploadArchive stores a zip export under objectKey.
func (s *Storage) UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	opts := minio.PutObjectOptions{ContentType: archiveContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, opts); err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	return nil
}

// ArchiveKey names an export taken at t, e.g. exports/commflow-20240101T000000Z.zip.
func ArchiveKey(t time.Time) string {
	return "exports/commflow-" + t.UTC().Format("20060102T150405Z") + ".zip"
}
