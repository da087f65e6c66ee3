package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store stores objects in an Amazon S3 bucket. Objects are private and
// resolved through presigned GET URLs.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
	keyPrefix string
	endpoint  string
	urlTTL    time.Duration
	now       func() time.Time
}

func NewS3Store(ctx context.Context, cfg config.AWSStorageConfig, httpClient *http.Client) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		keyPrefix: cfg.KeyPrefix,
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		urlTTL:    ttl,
		now:       time.Now,
	}, nil
}

func (s *S3Store) Name() string {
	return ProviderAWS
}

// objectKey prefixes path with the key prefix and the upload time in
// milliseconds so re-uploads never overwrite each other.
func (s *S3Store) objectKey(path string) string {
	return fmt.Sprintf("%s%d-%s", s.keyPrefix, s.now().UnixMilli(), path)
}

func (s *S3Store) Upload(ctx context.Context, path string, file Upload) (StoredObject, error) {
	key := s.objectKey(path)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(int64(len(file.Data))),
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}

	return StoredObject{Key: key, URL: s.publicURL(key)}, nil
}

// publicURL returns the virtual-hosted style URL of key, or the path style
// URL under a custom endpoint.
func (s *S3Store) publicURL(key string) string {
	escaped := escapePath(key)
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) (bool, error) {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s from s3: %w", key, err)
	}
	return true, nil
}

// escapePath escapes every segment of a slash separated key.
func escapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
