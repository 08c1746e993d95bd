// Package storage fetches import files from S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
)

// MaxObjectSize caps the size of an import object
const MaxObjectSize = 20 << 20

// Object is an opened import file
type Object struct {
	Key  string
	Body io.ReadCloser
	Size int64
}

// Ext returns the lower-cased extension of the object key, e.g. ".csv"
func (o *Object) Ext() string {
	return strings.ToLower(path.Ext(o.Key))
}

// ObjectGetter is the part of the S3 API the source needs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds S3 connection settings
type Config struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	Bucket             string
}

// S3Source reads objects from a single bucket
type S3Source struct {
	client ObjectGetter
	bucket string
	log    logger.Logger
}

// NewS3Source builds an S3 client from static credentials
func NewS3Source(ctx context.Context, cfg Config, log logger.Logger) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("import bucket is not configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3SourceWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, log), nil
}

// NewS3SourceWithClient wraps an existing client
func NewS3SourceWithClient(client ObjectGetter, bucket string, log logger.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		log:    log.With("component", "s3_source"),
	}
}

// Open fetches key from the bucket. The caller closes Body.
func (s *S3Source) Open(ctx context.Context, key string) (*Object, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return nil, domain.NewValidationError("object key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.NewNotFoundError("import object")
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	size := aws.ToInt64(out.ContentLength)
	if size > MaxObjectSize {
		out.Body.Close()
		return nil, domain.NewValidationError(fmt.Sprintf("import object is %d bytes, limit is %d", size, MaxObjectSize))
	}

	s.log.Info("import object opened", "bucket", s.bucket, "key", key, "size", size)
	return &Object{
		Key:  key,
		Body: out.Body,
		Size: size,
	}, nil
}
