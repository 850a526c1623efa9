// Package storage keeps purchase order media (payment receipts, QC photos,
// damage evidence) in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	infraconfig "github.com/mayavriksh/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3BlobStore implements BlobUploader
var _ appproc.BlobUploader = (*S3BlobStore)(nil)

// S3BlobStore stores uploads in a single bucket. It works with AWS S3 and
// S3-compatible servers such as MinIO.
type S3BlobStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// S3BlobStoreOption is a functional option for configuring S3BlobStore
type S3BlobStoreOption func(*S3BlobStore)

// WithLogger sets a custom logger for S3BlobStore
func WithLogger(logger *zap.Logger) S3BlobStoreOption {
	return func(s *S3BlobStore) {
		s.logger = logger
	}
}

// NewS3BlobStore creates a store from configuration. Without static keys the
// default AWS credential chain is used.
func NewS3BlobStore(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3BlobStoreOption) (*S3BlobStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		switch {
		case endpoint != "":
			publicBase = endpoint + "/" + cfg.Bucket
		default:
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	store := &S3BlobStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3BlobStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores file as folder/idPrefix-<uuid><ext>. The object key is the
// returned PublicID.
func (s *S3BlobStore) Upload(ctx context.Context, file appproc.Upload, folder, idPrefix string) (shared.MediaRef, error) {
	if len(file.Data) == 0 {
		return shared.MediaRef{}, errors.New("upload is empty")
	}

	key, contentType := objectKey(file, folder, idPrefix)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentLength: aws.Int64(int64(len(file.Data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return shared.MediaRef{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug("Uploaded object",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(file.Data)),
	)
	return shared.MediaRef{
		URL:       s.publicBaseURL + "/" + key,
		PublicID:  key,
		MediaType: contentType,
	}, nil
}

// Delete removes an object. Deleting a missing key succeeds.
func (s *S3BlobStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return errors.New("public id is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3BlobStore) Bucket() string {
	return s.bucket
}

// objectKey builds the key and content type for an upload. The extension
// comes from the file name, or from the sniffed type when the name has none.
func objectKey(file appproc.Upload, folder, idPrefix string) (string, string) {
	detected := mimetype.Detect(file.Data)
	contentType := file.ContentType
	if contentType == "" {
		contentType = detected.String()
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	if ext == "" {
		ext = detected.Extension()
	}

	name := uuid.NewString() + ext
	if idPrefix != "" {
		name = idPrefix + "-" + name
	}
	return path.Join(strings.Trim(folder, "/"), name), contentType
}
