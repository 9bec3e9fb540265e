package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config contains the information required to talk to an object store.
type Config struct {
	Provider  string
	Project   string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Root      string
}

// PutOptions describes the stored object.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Client represents the capabilities the capture pipelines expect. A Client
// is built once per process and is safe for concurrent use.
type Client interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, opts PutOptions) error
	// URI returns the canonical location of key, e.g. gs://bucket/key.
	URI(key string) string
	Close() error
}

// New creates an object store client based on the given configuration.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.Bucket == "" && cfg.Provider != "mem" && cfg.Provider != "file" {
		return nil, errors.New("object store bucket is required")
	}
	switch cfg.Provider {
	case "minio", "s3":
		return newMinioClient(cfg)
	case "gcs", "file", "mem":
		return newBlobClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported object store provider: %s", cfg.Provider)
	}
}

type minioClient struct {
	client *minio.Client
	bucket string
	scheme string
}

func newMinioClient(cfg Config) (Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &minioClient{client: cl, bucket: cfg.Bucket, scheme: "s3"}, nil
}

func (m *minioClient) Put(ctx context.Context, key string, reader io.Reader, size int64, opts PutOptions) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, classifyMinio(err))
	}
	return nil
}

func (m *minioClient) URI(key string) string {
	return fmt.Sprintf("%s://%s/%s", m.scheme, m.bucket, key)
}

func (m *minioClient) Close() error {
	return nil
}
