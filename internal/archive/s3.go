package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
)

// S3Config locates the object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Archiver writes screenshots to an S3-compatible bucket.
type S3Archiver struct {
	client     *minio.Client
	bucket     string
	objectName func() string
	log        zerolog.Logger
}

// NewS3Archiver creates an archiver for cfg. The bucket is not checked until
// EnsureBucket or the first upload.
func NewS3Archiver(cfg S3Config) (*S3Archiver, error) {
	const op = "archive.NewS3Archiver"

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s: S3_ENDPOINT is required", op)
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create client: %w", op, err)
	}

	return &S3Archiver{
		client:     client,
		bucket:     cfg.Bucket,
		objectName: ObjectName,
		log:        logger.WithComponent("archive.s3"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Archiver) EnsureBucket(ctx context.Context) error {
	const op = "archive.EnsureBucket"

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%s: create bucket %s: %w", op, s.bucket, err)
	}
	s.log.Info().Str("bucket", s.bucket).Msg("Created screenshot bucket")
	return nil
}

// Archive implements Archiver.
func (s *S3Archiver) Archive(ctx context.Context, shot Screenshot) error {
	const op = "archive.S3Archiver.Archive"

	name := s.objectName()
	info, err := s.client.PutObject(ctx, s.bucket, name,
		bytes.NewReader(shot.Data), int64(len(shot.Data)),
		minio.PutObjectOptions{
			ContentType:  shot.ContentType,
			UserMetadata: map[string]string{"fingerprint": shot.Fingerprint},
		})
	if err != nil {
		return fmt.Errorf("%s: put %s/%s: %w", op, s.bucket, name, err)
	}

	s.log.Info().
		Str("bucket", s.bucket).
		Str("path", info.Key).
		Int64("size", info.Size).
		Str("fingerprint", shot.Fingerprint).
		Msg("Screenshot archived")
	return nil
}
