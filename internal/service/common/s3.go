//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/oshokin/ota-updater/internal/config"
)

var errInvalidS3URL = errors.New("s3 url must look like s3://bucket/key")

// S3Client fetches update metadata and packages from an S3-compatible bucket.
// URLs take the form s3://bucket/object/key.
type S3Client struct {
	client *minio.Client
}

// NewS3Client creates an S3 transport for the configured endpoint.
func NewS3Client(opts *config.S3Config) (*S3Client, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Client{client: client}, nil
}

// Fetch returns the object behind rawURL as text.
func (c *S3Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	object, err := c.open(ctx, rawURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = object.Close()
	}()

	return readQueryBody(object)
}

// Download streams the object behind rawURL into dst.
func (c *S3Client) Download(ctx context.Context, rawURL string, dst io.Writer) (int64, error) {
	object, err := c.open(ctx, rawURL)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = object.Close()
	}()

	written, err := io.Copy(dst, object)
	if err != nil {
		return written, fmt.Errorf("download %s: %w", rawURL, err)
	}

	return written, nil
}

func (c *S3Client) open(ctx context.Context, rawURL string) (*minio.Object, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, err
	}

	object, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}

	return object, nil
}

// parseS3URL splits s3://bucket/key into its parts.
func parseS3URL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if !strings.EqualFold(u.Scheme, config.SchemeS3) || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%q: %w", rawURL, errInvalidS3URL)
	}

	return u.Host, key, nil
}
