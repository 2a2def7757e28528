package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewClient(cfg Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return client, nil
}

// Bucket writes objects into a single bucket, creating it on first use.
type Bucket struct {
	client *minio.Client
	name   string

	ensureOnce sync.Once
	ensureErr  error
}

func NewBucket(client *minio.Client, name string) *Bucket {
	return &Bucket{
		client: client,
		name:   strings.TrimSpace(name),
	}
}

func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) EnsureBucket(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if b.name == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	b.ensureOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.name)
		if err != nil {
			b.ensureErr = err
			return
		}
		if exists {
			return
		}
		b.ensureErr = b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{})
	})

	if b.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", b.name, b.ensureErr)
	}
	return nil
}

func (b *Bucket) PutObject(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) error {
	if b.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if key == "" || len(body) == 0 {
		return fmt.Errorf("s3 object key and body are required")
	}
	if err := b.EnsureBucket(ctx); err != nil {
		return err
	}

	_, err := b.client.PutObject(ctx, b.name, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return fmt.Errorf("put object to s3: %w", err)
	}
	return nil
}
