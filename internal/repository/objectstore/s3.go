package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/config"
)

// Store uploads exported artifacts and returns where they can be downloaded.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// S3Store writes to an S3 compatible bucket such as Cloudflare R2.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewS3Store builds a store from static credentials. A custom endpoint switches the
// client to path-style addressing.
func NewS3Store(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("object storage needs a public base URL to link uploads")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:  logger,
	}, nil
}

// Put uploads data under key and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.Debug("artifact uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return PublicURL(s.baseURL, key), nil
}

// PublicURL joins the public base URL and the key.
func PublicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}
