// Package audiostore archives received audio clips to S3-compatible storage.
// Archiving is best-effort supporting infrastructure: a failed upload is
// logged by the caller and never fails the chat turn.
package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/speakfluent/speakfluent/internal/server/config"
)

// Store saves audio clips. A nil *S3Store is a valid no-op store, used when
// archiving is disabled by config.
type Store interface {
	Put(ctx context.Context, username string, data []byte, contentType string) (string, error)
}

type S3Store struct {
	config *sc.Config
	client *s3.Client
}

// NewS3Store builds the store, or returns nil (disabled) when no bucket is
// configured.
func NewS3Store(ctx context.Context, c *sc.Config) (*S3Store, error) {
	if c.S3Bucket == "" {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{config: c, client: client}, nil
}

func storageKey(username string) string {
	d := time.Now()
	return fmt.Sprintf("clips/%s/%d/%d/%d/%v.wav", username, d.Year(), d.Month(), d.Day(), uuid.New())
}

// Put uploads one clip and returns its storage key.
func (s *S3Store) Put(ctx context.Context, username string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", nil
	}

	key := storageKey(username)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading clip: %w", err)
	}
	return key, nil
}
