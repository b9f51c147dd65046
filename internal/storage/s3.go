package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"jejak/backend/internal/config"
)

// ObjectGetter is the part of *s3.Client the catalog source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source reads the catalog from bucket/key through client.
func NewS3Source(client ObjectGetter, bucket, key string) CatalogSource {
	return &s3Source{client: client, bucket: bucket, key: key}
}

// NewS3Client builds an S3 client from config. A custom endpoint switches to
// path-style addressing, which S3-compatible services like MinIO require.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *s3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, s.Location())
		}
		return nil, fmt.Errorf("get %s: %w", s.Location(), err)
	}
	return out.Body, nil
}

func (s *s3Source) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}

// OpenSource picks a source for location: s3://bucket/key goes to S3, anything
// else is a local path.
func OpenSource(ctx context.Context, location string, cfg config.S3Config) (CatalogSource, error) {
	bucket, key, ok := ParseS3URL(location)
	if !ok {
		return NewFileSource(location), nil
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewS3Source(client, bucket, key), nil
}
