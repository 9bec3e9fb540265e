package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/gcerrors"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "ftp", Bucket: "b"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "gcs"})
	assert.Error(t, err, "bucket is required")
}

func TestPut_Mem(t *testing.T) {
	ctx := context.Background()
	cl, err := New(ctx, Config{Provider: "mem"})
	require.NoError(t, err)
	defer cl.Close()

	body := []byte("jpeg bytes")
	err = cl.Put(ctx, "raw/cam/2024/01/02/1.jpg", bytes.NewReader(body), int64(len(body)), PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"camera_id": "cam"},
	})
	require.NoError(t, err)

	bc := cl.(*blobClient)
	got, err := bc.bucket.ReadAll(ctx, "raw/cam/2024/01/02/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	attrs, err := bc.bucket.Attributes(ctx, "raw/cam/2024/01/02/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", attrs.ContentType)
	assert.Equal(t, "cam", attrs.Metadata["camera_id"])
	assert.Equal(t, "mem://raw/cam/2024/01/02/1.jpg", cl.URI("raw/cam/2024/01/02/1.jpg"))
}

func TestPut_File(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "objects")
	cl, err := New(ctx, Config{Provider: "file", Root: root})
	require.NoError(t, err)
	defer cl.Close()

	body := []byte("png bytes")
	require.NoError(t, cl.Put(ctx, "raw/cam/x.png", bytes.NewReader(body), int64(len(body)), PutOptions{ContentType: "image/png"}))

	got, err := os.ReadFile(filepath.Join(root, "raw", "cam", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestPut_ShortReaderFails(t *testing.T) {
	ctx := context.Background()
	cl, err := New(ctx, Config{Provider: "mem"})
	require.NoError(t, err)
	defer cl.Close()

	err = cl.Put(ctx, "short", bytes.NewReader([]byte("abc")), 10, PutOptions{})
	assert.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestMinioURI(t *testing.T) {
	cl, err := New(context.Background(), Config{Provider: "minio", Endpoint: "localhost:9000", Bucket: "frames"})
	require.NoError(t, err)
	assert.Equal(t, "s3://frames/raw/a.jpg", cl.URI("raw/a.jpg"))
}

func TestClassify(t *testing.T) {
	denied := minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}
	assert.True(t, IsPermanent(fmt.Errorf("put: %w", classifyMinio(denied))))
	assert.False(t, IsPermanent(classifyMinio(minio.ErrorResponse{Code: "SlowDown"})))
	assert.False(t, IsPermanent(classifyMinio(errors.New("connection reset"))))

	// The original error stays reachable through the permanent wrapper.
	wrapped := classifyMinio(denied)
	var resp minio.ErrorResponse
	assert.True(t, errors.As(wrapped, &resp))
	assert.Equal(t, "AccessDenied", resp.Code)

	assert.False(t, IsPermanent(classifyBlob(errors.New("timeout"))))
	assert.Equal(t, gcerrors.Unknown, gcerrors.Code(errors.New("timeout")))
}
