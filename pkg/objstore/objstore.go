package objstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("object not found")

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	PresignTTL    time.Duration
}

// ObjectInfo describes a stored object, used to confirm client-side uploads.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Client wraps an S3-compatible backend (AWS S3, Cloudflare R2, MinIO) for
// presigned uploads. File bytes never pass through the API server.
type Client struct {
	mc  *minio.Client
	cfg Config
}

// New builds the client and fails fast if the target bucket is unreachable.
func New(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	return &Client{mc: mc, cfg: cfg}, nil
}

// PresignedPut returns a time-boxed URL the client PUTs the file to directly.
func (c *Client) PresignedPut(ctx context.Context, key string) (string, time.Duration, error) {
	u, err := c.mc.PresignedPutObject(ctx, c.cfg.Bucket, key, c.cfg.PresignTTL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign upload: %w", err)
	}
	return u.String(), c.cfg.PresignTTL, nil
}

// Stat confirms an object exists and returns its size and content type.
func (c *Client) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := c.mc.StatObject(ctx, c.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat object: %w", err)
	}
	return ObjectInfo{Size: info.Size, ContentType: info.ContentType}, nil
}

// Remove deletes an object. Removing a missing key is not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	if err := c.mc.RemoveObject(ctx, c.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// PublicURL builds the externally reachable URL for key.
func (c *Client) PublicURL(key string) string {
	base := strings.TrimRight(c.cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Bucket
	}
	return base + "/" + key
}
