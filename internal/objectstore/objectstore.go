// Package objectstore wraps the S3-compatible client used by both the
// remote catalog and the upload engine: client construction, the
// storage-class name mapping, and the fixed-step retry policy shared by
// every write operation against the store.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
)

// ClientConfig configures S3 client construction. Endpoint and
// ForcePathStyle exist to support S3-compatible stores (MinIO, etc); both
// are empty/false for real AWS S3.
type ClientConfig struct {
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// NewClient builds an S3 client using the ambient AWS credential chain
// (environment, shared config, instance/task role).
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return client, nil
}

// storageClassTokens maps the config-file storage class names onto the
// literal S3 StorageClass API values.
var storageClassTokens = map[string]string{
	"STANDARD":                 "STANDARD",
	"Glacier":                  "GLACIER",
	"DeepArchive":              "DEEP_ARCHIVE",
	"StandardInfrequentAccess": "STANDARD_IA",
}

// StorageClassToken translates a BackupPolicy storage class name into the
// token the S3 API expects. Returns an error for names outside the fixed
// set validated at config load time.
func StorageClassToken(name string) (string, error) {
	token, ok := storageClassTokens[name]
	if !ok {
		return "", fmt.Errorf("objectstore: unknown storage class %q", name)
	}
	return token, nil
}

// MaxRetries is the fixed number of attempts (including the first) every
// store operation gets before giving up.
const MaxRetries = 20

// fixedStepBackoff implements backoff.BackOff with the linear attempt*2s
// sleep law: the Nth retry (N starting at 1) sleeps N*2 seconds, and the
// policy gives up after MaxRetries-1 retries (MaxRetries total attempts).
type fixedStepBackoff struct {
	attempt int
}

// NewRetryPolicy returns a fresh backoff.BackOff for one store operation.
// A new instance must be used per call to backoff.Retry; NextBackOff is not
// safe to reuse across operations since it carries attempt state.
func NewRetryPolicy() backoff.BackOff {
	return &fixedStepBackoff{}
}

func (b *fixedStepBackoff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= MaxRetries {
		return backoff.Stop
	}
	return time.Duration(b.attempt) * 2 * time.Second
}

func (b *fixedStepBackoff) Reset() {
	b.attempt = 0
}
