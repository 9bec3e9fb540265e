package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	_ "gocloud.dev/blob/gcsblob" // gs:// URLs
)

// blobClient stores objects through the Go CDK, which backs the gcs, file and
// mem providers.
type blobClient struct {
	bucket *blob.Bucket
	uri    func(key string) string
}

func newBlobClient(ctx context.Context, cfg Config) (*blobClient, error) {
	switch cfg.Provider {
	case "gcs":
		// Credentials and project come from Application Default Credentials.
		b, err := blob.OpenBucket(ctx, "gs://"+cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open gcs bucket %s: %w", cfg.Bucket, err)
		}
		return &blobClient{bucket: b, uri: func(key string) string {
			return fmt.Sprintf("gs://%s/%s", cfg.Bucket, key)
		}}, nil
	case "file":
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root: %w", err)
		}
		b, err := fileblob.OpenBucket(cfg.Root, nil)
		if err != nil {
			return nil, fmt.Errorf("open file bucket %s: %w", cfg.Root, err)
		}
		return &blobClient{bucket: b, uri: func(key string) string {
			return fmt.Sprintf("file://%s/%s", cfg.Root, key)
		}}, nil
	default:
		return &blobClient{bucket: memblob.OpenBucket(nil), uri: func(key string) string {
			return "mem://" + key
		}}, nil
	}
}

func (b *blobClient) Put(ctx context.Context, key string, reader io.Reader, size int64, opts PutOptions) error {
	// Cancelling the writer's context before Close discards a partial upload.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.bucket.NewWriter(wctx, key, &blob.WriterOptions{
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
	})
	if err != nil {
		return fmt.Errorf("open writer %s: %w", key, classifyBlob(err))
	}
	if _, err := io.CopyN(w, reader, size); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write %s: %w", key, classifyBlob(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", key, classifyBlob(err))
	}
	return nil
}

func (b *blobClient) URI(key string) string {
	return b.uri(key)
}

func (b *blobClient) Close() error {
	return b.bucket.Close()
}
