// Package storage keeps maintenance attachments (albarán photos, invoices) on
// an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"taller-service/internal/config"
)

var ErrNotConfigured = errors.New("attachment storage is not configured")

var allowedContentTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

type Client struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
	now           func() time.Time
}

// NewClient builds the attachment store from config. Missing credentials
// report ErrNotConfigured so the service can boot with uploads disabled.
func NewClient(cfg config.StorageConfig) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg := aws.Config{
		Region:                      cfg.Region,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		EndpointResolverWithOptions: resolver,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Client{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		now:           time.Now,
	}, nil
}

// UploadAttachment stores one file under the vehicle's prefix and returns its
// public URL. Only image and PDF uploads are accepted.
func (c *Client) UploadAttachment(ctx context.Context, plate string, body io.Reader, size int64, contentType string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrNotConfigured
	}
	if size <= 0 {
		return "", fmt.Errorf("empty file")
	}
	ext, ok := allowedContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	key := path.Join(plate, fmt.Sprintf("%d.%s", c.now().UnixMilli(), ext))

	input := &s3.PutObjectInput{
		Bucket:        &c.bucket,
		Key:           &key,
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if _, err := c.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("attachment upload failed: %w", err)
	}
	return c.objectURL(key), nil
}

func (c *Client) objectURL(key string) string {
	trimmedKey := strings.TrimLeft(key, "/")
	if c.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, trimmedKey)
	}
	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, trimmedKey)
}
