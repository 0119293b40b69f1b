// Package storage provides object storage backends for archived report exports.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sellout/backend/internal/application/report"
	"github.com/sellout/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ report.ReportArchive = (*S3ReportArchive)(nil)

// DefaultPresignExpiration is used when neither the config nor the caller sets a link lifetime
const DefaultPresignExpiration = time.Hour

var errEmptyKey = errors.New("storage key is required")

// S3ReportArchive stores report exports in an S3-compatible bucket (AWS S3, MinIO, RustFS)
type S3ReportArchive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3ReportArchiveOption configures an S3ReportArchive
type S3ReportArchiveOption func(*S3ReportArchive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) S3ReportArchiveOption {
	return func(s *S3ReportArchive) {
		s.logger = logger
	}
}

// WithPresignExpiration overrides the configured download link lifetime
func WithPresignExpiration(d time.Duration) S3ReportArchiveOption {
	return func(s *S3ReportArchive) {
		s.presignExpiration = d
	}
}

// NewS3ReportArchive creates an archive from storage configuration.
// Without static keys the default AWS credential chain is used. Without an
// endpoint the regional AWS endpoint is used.
func NewS3ReportArchive(cfg *config.StorageConfig, opts ...S3ReportArchiveOption) (*S3ReportArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3ReportArchive{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	if archive.presignExpiration <= 0 {
		archive.presignExpiration = DefaultPresignExpiration
	}
	return archive, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q: missing host", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call it once at startup.
func (s *S3ReportArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating report archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload writes an export body under key
func (s *S3ReportArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errEmptyKey
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug("Report export archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// GenerateDownloadURL presigns a GET for key. A non-positive ttl uses the archive default.
func (s *S3ReportArchive) GenerateDownloadURL(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	if ttl <= 0 {
		ttl = s.presignExpiration
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// ObjectExists reports whether key is present in the bucket
func (s *S3ReportArchive) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Bucket returns the bucket name
func (s *S3ReportArchive) Bucket() string {
	return s.bucket
}
