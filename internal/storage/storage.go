package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfpharmacy/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DriverS3       = "s3"
	DriverSupabase = "supabase"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectStore persists statement files and hands out time-limited read links.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the object store selected by config.StorageDriver.
func New(config *types.Config, awsConfig aws.Config) (ObjectStore, error) {
	switch config.StorageDriver {
	case DriverS3, "":
		client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if config.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(config.S3Endpoint)
				o.UsePathStyle = true
			}
		})
		return NewS3Store(client, config.StatementsBucket), nil
	case DriverSupabase:
		return NewSupabaseStorage(config.SupabaseURL, config.SupabaseServiceRoleKey, config.StatementsBucket), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.StorageDriver)
	}
}
