package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps statements in an S3 bucket and signs GET requests for download.
type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

func NewS3Store(client *s3.Client, bucketName string) *S3Store {
	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: bucketName,
	}
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if s.bucketName == "" {
		return ErrNotConfigured
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.bucketName == "" {
		return "", ErrNotConfigured
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return req.URL, nil
}
