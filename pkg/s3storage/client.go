// Package s3storage wraps the object-store client used by all pipeline
// utilities.
//
// The client is deliberately thin: listing, download, upload, copy and
// delete with standard error signaling. Retry/backoff of transient
// failures is left to the minio transport.
package s3storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	"github.com/impresso/impresso-essentials/pkg/config"
)

// ClientInterface defines the storage operations used by the manifest
// computation. Kept as an interface for mocking in tests.
type ClientInterface interface {
	ListFiles(ctx context.Context, bucket, prefix string) ([]StoredObject, error)
	DownloadFile(ctx context.Context, bucket, key string) ([]byte, error)
	UploadFile(ctx context.Context, bucket, key string, data []byte) error
	ReadJSONLines(ctx context.Context, bucket, key string) ([]string, error)
}

// Client is the minio-backed implementation.
type Client struct {
	api     *minio.Client
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// StoredObject is a raw object listing entry.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New creates a client from the S3 section of the configuration.
//
// Credentials fall back to the SE_ACCESS_KEY / SE_SECRET_KEY
// environment variables when not set in the config.
func New(cfg config.S3Config) (*Client, error) {
	accessKey := cfg.AccessKey
	secretKey := cfg.SecretKey
	if accessKey == "" {
		accessKey = os.Getenv("SE_ACCESS_KEY")
	}
	if secretKey == "" {
		secretKey = os.Getenv("SE_SECRET_KEY")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.BurstLimit
		if burst == 0 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{api: minioClient, limiter: limiter}, nil
}

// wait blocks until the request limiter admits another call.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// ListFiles returns all objects under prefix, recursively.
func (c *Client) ListFiles(ctx context.Context, bucket, prefix string) ([]StoredObject, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var objects []StoredObject
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}

	for obj := range c.api.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == prefix {
			continue
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, nil
}

// ListDirectories returns the names of the first-level "directories"
// (media titles) in bucket after the given prefix.
func (c *Client) ListDirectories(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var directories []string
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false}

	for obj := range c.api.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			trimmed := strings.TrimSuffix(obj.Key, "/")
			parts := strings.Split(trimmed, "/")
			directories = append(directories, parts[len(parts)-1])
		}
	}

	return directories, nil
}

// DownloadFile fetches an object fully into memory.
func (c *Client) DownloadFile(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return buf.Bytes(), nil
}

// DownloadToFile fetches an object and writes it to localPath.
func (c *Client) DownloadToFile(ctx context.Context, bucket, key, localPath string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, obj); err != nil {
		return fmt.Errorf("failed to write file %s: %w", localPath, err)
	}

	return nil
}

// UploadFile stores data under key in bucket.
func (c *Client) UploadFile(ctx context.Context, bucket, key string, data []byte) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	// keys are sometimes passed with the URI scheme still attached
	key = strings.TrimPrefix(key, "s3://")

	_, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("upload of %s to s3://%s failed: %w", key, bucket, err)
	}

	return nil
}

// ObjectSize returns the size in bytes of the object at key.
func (c *Client) ObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	info, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("stat of %s in %s failed: %w", key, bucket, err)
	}

	return info.Size, nil
}

// ObjectMetadata returns the user metadata and last-modified time of
// the object at key.
func (c *Client) ObjectMetadata(ctx context.Context, bucket, key string) (map[string]string, time.Time, error) {
	if err := c.wait(ctx); err != nil {
		return nil, time.Time{}, err
	}

	info, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat of %s in %s failed: %w", key, bucket, err)
	}

	return info.UserMetadata, info.LastModified, nil
}

// CopyObject copies srcKey in srcBucket to destKey in destBucket. When
// metadata is non-nil the destination's user metadata is replaced with
// it; otherwise the source metadata is carried over.
func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, destBucket, destKey string, metadata map[string]string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	dest := minio.CopyDestOptions{Bucket: destBucket, Object: destKey}
	if metadata != nil {
		dest.UserMetadata = metadata
		dest.ReplaceMetadata = true
	}

	_, err := c.api.CopyObject(ctx, dest, minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey})
	if err != nil {
		return fmt.Errorf("copy %s/%s -> %s/%s failed: %w", srcBucket, srcKey, destBucket, destKey, err)
	}

	return nil
}

// DeleteObject removes a single key.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// DeletePrefix removes every key under prefix and returns the number
// of deleted objects.
func (c *Client) DeletePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	objects, err := c.ListFiles(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if err := c.DeleteObject(ctx, bucket, obj.Key); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
		deleted++
	}

	return deleted, nil
}
