package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client defines the S3 operations used by S3Storage. Narrowed from the
// SDK client so tests can substitute a mock.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage implements Storage for Amazon S3 and S3-compatible services.
// Safe for concurrent use.
type S3Storage struct {
	client        S3Client
	bucket        string
	baseURL       string
	uploadTimeout time.Duration
}

// S3Config contains configuration for S3 storage.
type S3Config struct {
	Bucket      string `env:"BLOB_S3_BUCKET"`
	Region      string `env:"BLOB_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID string `env:"BLOB_S3_ACCESS_KEY_ID"`
	SecretKey   string `env:"BLOB_S3_SECRET_KEY"`
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string `env:"BLOB_S3_ENDPOINT"`
	// BaseURL is the public URL base for serving stored blobs.
	BaseURL        string `env:"BLOB_S3_BASE_URL"`
	ForcePathStyle bool   `env:"BLOB_S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// S3Option configures S3Storage construction.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	uploadTimeout time.Duration
}

// WithS3Client sets a pre-configured client. Useful for tests.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) { o.client = client }
}

// WithUploadTimeout bounds Put operations. Zero means the caller's context
// deadline applies.
func WithUploadTimeout(d time.Duration) S3Option {
	return func(o *s3Options) { o.uploadTimeout = d }
}

// NewS3Storage creates an S3-backed storage instance.
func NewS3Storage(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &S3Storage{
		client:        client,
		bucket:        cfg.Bucket,
		baseURL:       baseURL,
		uploadTimeout: options.uploadTimeout,
	}, nil
}

func (ss *S3Storage) Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error) {
	clean := CleanPath(path)
	if clean == "" {
		return nil, ErrInvalidPath
	}

	if ss.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ss.uploadTimeout)
		defer cancel()
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(clean),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := ss.client.PutObject(ctx, input); err != nil {
		return nil, classifyS3Error(err, "put")
	}

	return &Object{
		Path:        clean,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         ss.URL(clean),
	}, nil
}

func (ss *S3Storage) Get(ctx context.Context, path string) ([]byte, error) {
	clean := CleanPath(path)
	if clean == "" {
		return nil, ErrInvalidPath
	}

	out, err := ss.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(clean),
	})
	if err != nil {
		return nil, classifyS3Error(err, "get")
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadBlob, err)
	}
	return data, nil
}

func (ss *S3Storage) Delete(ctx context.Context, path string) error {
	clean := CleanPath(path)
	if clean == "" {
		return ErrInvalidPath
	}

	if _, err := ss.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(clean),
	}); err != nil {
		return classifyS3Error(err, "delete")
	}
	return nil
}

func (ss *S3Storage) Exists(ctx context.Context, path string) bool {
	clean := CleanPath(path)
	if clean == "" {
		return false
	}

	_, err := ss.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(clean),
	})
	return err == nil
}

func (ss *S3Storage) URL(path string) string {
	clean := CleanPath(path)
	if clean == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", ss.baseURL, clean)
}

// classifyS3Error converts SDK errors to package sentinels.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return ErrNotFound
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		case "AccessDenied":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		}
	}

	return fmt.Errorf("s3 %s: %w", operation, err)
}
