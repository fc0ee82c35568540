package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadConfig mirrors the S3 settings cdc/flusher.go's RunOnce assembles
// before building its s3.Client: an explicit region override and an
// optional static-credentials fallback for non-IAM environments.
type UploadConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Uploader wraps an S3 manager.Uploader, the batching/multipart-aware
// client the AWS SDK recommends over raw PutObject for snapshot-sized
// files.
type Uploader struct {
	client *s3.Client
	bucket string
}

// NewUploader loads the default AWS config the same way
// cdc/flusher.go's RunOnce does (config.LoadDefaultConfig, then an
// explicit region override and a static-credentials override when an
// access key is supplied).
func NewUploader(ctx context.Context, cfg UploadConfig) (*Uploader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// UploadFile streams the local file at path up to s3://bucket/key using
// the multipart-aware manager.Uploader.
func (u *Uploader) UploadFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	uploader := manager.NewUploader(u.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("snapshot: upload %s: %w", key, err)
	}
	return nil
}

// HealthCheck performs a lightweight HTTP HEAD against endpoint, the
// same best-effort DNS/TLS probe as the teacher's S3HealthCheck
// (s3_health.go) — useful before attempting an authenticated upload.
func HealthCheck(ctx context.Context, endpoint string, timeout time.Duration) error {
	if endpoint == "" {
		return fmt.Errorf("snapshot: s3 endpoint not configured")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return fmt.Errorf("snapshot: health request build failed: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("snapshot: health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("snapshot: s3 endpoint reachable but returned auth error: %d", resp.StatusCode)
	}
	return fmt.Errorf("snapshot: s3 endpoint returned unexpected status: %d", resp.StatusCode)
}
