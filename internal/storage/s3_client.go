package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrBucketNotFound reports that the configured bucket does not exist, as
// opposed to a generic connectivity or authorization failure.
var ErrBucketNotFound = errors.New("S3 bucket not found")

// ErrIncompleteSettings reports that bucket or credentials are missing
var ErrIncompleteSettings = errors.New("S3 settings are incomplete: bucket, access key and secret key are required")

// S3Config carries the per-account object storage settings
type S3Config struct {
	Endpoint  string // optional custom endpoint; empty means AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Client uploads archives to an S3-compatible bucket
type S3Client struct {
	client *minio.Client
	bucket string
}

// NewS3Client creates a client from the given settings
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrIncompleteSettings
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint := cfg.Endpoint
	secure := true
	switch {
	case endpoint == "":
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", region)
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Client{client: client, bucket: cfg.Bucket}, nil
}

// Upload pushes the local file to the bucket under key. Any transport or
// authorization failure is folded into a single reason.
func (c *S3Client) Upload(ctx context.Context, localPath, key string) error {
	_, err := c.client.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("S3 upload failed: %v", err)
	}
	return nil
}

// TestConnection checks that the bucket is reachable with the configured
// credentials. A reachable endpoint without the bucket yields
// ErrBucketNotFound.
func (c *S3Client) TestConnection(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("S3 connection failed: %v", err)
	}
	if !exists {
		return ErrBucketNotFound
	}
	return nil
}

// BackupKey builds the deterministic object key for a backup archive.
// Scope is the account ID for personal backups or "full" for a full backup.
func BackupKey(scope string, t time.Time) string {
	return fmt.Sprintf("keepr_backups/%s/backup_%s.zip", scope, t.Format("20060102_150405"))
}
