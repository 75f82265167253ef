package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"streetview-pano-service/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Subset of the S3 client used by the store.
type s3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Optional custom endpoint (MinIO, localstack). Enables path-style addressing.
	Endpoint string
	// Optional key prefix, e.g. "screenshots".
	Prefix string
}

// S3ScreenshotStore uploads screenshots to an S3 bucket.
type S3ScreenshotStore struct {
	client s3API
	bucket string
	prefix string
}

// NewS3ScreenshotStore builds an S3 client from cfg. Static credentials are
// used when both keys are set; otherwise the default AWS credential chain.
func NewS3ScreenshotStore(ctx context.Context, cfg S3Config) (*S3ScreenshotStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 screenshot store: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 screenshot store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3ScreenshotStore {
	return &S3ScreenshotStore{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads the image and returns its object key.
//
// The index is derived from a listing, so concurrent uploads for the same
// case may race for an index; the later upload then replaces the earlier one.
func (s *S3ScreenshotStore) Save(ctx context.Context, shot domain.Screenshot) (string, error) {
	n, err := s.count(ctx, s.key(shot.CaseID)+"/")
	if err != nil {
		return "", err
	}

	key := s.key(objectKey(shot, n))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(shot.Image),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("save screenshot: put s3://%s/%s: %w", s.bucket, key, err)
	}

	return key, nil
}

func (s *S3ScreenshotStore) count(ctx context.Context, prefix string) (int, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("save screenshot: list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		n += int(aws.ToInt32(page.KeyCount))
	}
	return n, nil
}

func (s *S3ScreenshotStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + "/" + k
}
