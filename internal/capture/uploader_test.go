package capture_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/your-org/camflow/internal/capture"
	"github.com/your-org/camflow/internal/capture/capturetest"
)

type recordingForwarder struct {
	events []capture.ImageEvent
	err    error
}

func (r *recordingForwarder) Forward(_ context.Context, ev capture.ImageEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

type recordingPublisher struct {
	key     []byte
	value   []byte
	headers map[string]string
}

func (r *recordingPublisher) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	r.key, r.value, r.headers = key, value, headers
	return nil
}

func TestUploadSnapshot(t *testing.T) {
	store := &capturetest.Store{}
	fwd := &recordingForwarder{}
	up := capture.NewUploader(capture.Params{Store: store, Forwarder: fwd})

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	out := up.Upload(context.Background(), capture.NewSnapshotEvent("cam", []byte("jpeg"), at), "image/jpeg")

	require.True(t, out.OK(), out.Reason)
	assert.Equal(t, capture.SnapshotKey("cam", at), out.Key)
	assert.Equal(t, "mem://test/"+out.Key, out.URI)

	puts := store.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, []byte("jpeg"), puts[0].Body)
	assert.Equal(t, "image/jpeg", puts[0].ContentType)
	assert.Equal(t, "cam", puts[0].Metadata["camera_id"])
	assert.Equal(t, "poll", puts[0].Metadata["source"])

	require.Len(t, fwd.events, 1)
	assert.Equal(t, out.URI, fwd.events[0].ImageURI)
	assert.Equal(t, "cam", fwd.events[0].CameraID)
	assert.Equal(t, at, fwd.events[0].Timestamp)
	assert.NotEmpty(t, fwd.events[0].ID)
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("file bytes"), 0o644))

	store := &capturetest.Store{}
	up := capture.NewUploader(capture.Params{Store: store})
	out := up.Upload(context.Background(), capture.NewFileEvent("cam", path, "photo.jpg", time.Now()), "image/jpeg")

	require.True(t, out.OK(), out.Reason)
	assert.True(t, strings.HasSuffix(out.Key, "_photo.jpg"))
	puts := store.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, []byte("file bytes"), puts[0].Body)
	assert.Equal(t, "photo.jpg", puts[0].Metadata["original_filename"])
}

func TestUploadClassifiesFailures(t *testing.T) {
	t.Run("transient", func(t *testing.T) {
		store := &capturetest.Store{Err: errors.New("connection reset")}
		fwd := &recordingForwarder{}
		up := capture.NewUploader(capture.Params{Store: store, Forwarder: fwd})

		out := up.Upload(context.Background(), capture.NewSnapshotEvent("cam", []byte("x"), time.Now()), "image/jpeg")
		assert.Equal(t, capture.TransientFailure, out.Kind)
		assert.Empty(t, fwd.events)
	})
	t.Run("permanent from store", func(t *testing.T) {
		store := &capturetest.Store{Err: fmt.Errorf("bucket gone: %w", capture.ErrPermanent)}
		up := capture.NewUploader(capture.Params{Store: store})

		out := up.Upload(context.Background(), capture.NewSnapshotEvent("cam", []byte("x"), time.Now()), "image/jpeg")
		assert.Equal(t, capture.PermanentFailure, out.Kind)
	})
	t.Run("missing file", func(t *testing.T) {
		store := &capturetest.Store{}
		up := capture.NewUploader(capture.Params{Store: store})

		ev := capture.NewFileEvent("cam", filepath.Join(t.TempDir(), "gone.jpg"), "gone.jpg", time.Now())
		out := up.Upload(context.Background(), ev, "image/jpeg")
		assert.Equal(t, capture.PermanentFailure, out.Kind)
		assert.Zero(t, store.Calls())
	})
}

func TestUploadForwardFailureKeepsSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	up := capture.NewUploader(capture.Params{
		Store:     &capturetest.Store{},
		Forwarder: &recordingForwarder{err: errors.New("notifier down")},
		Logger:    zap.New(core),
	})

	out := up.Upload(context.Background(), capture.NewSnapshotEvent("cam", []byte("x"), time.Now()), "image/jpeg")
	assert.True(t, out.OK())
	assert.Equal(t, 1, logs.FilterMessage("forward image event failed").Len())
}

func TestOutcomeLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	capture.Classify("k1", nil).Log(logger)
	capture.Classify("k2", errors.New("boom")).Log(logger)
	capture.Classify("k3", capture.ErrPermanent).Log(logger)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "transient_failure", entries[1].ContextMap()["outcome"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "upload failed permanently", entries[2].Message)
}

func TestPublishForwarder(t *testing.T) {
	pub := &recordingPublisher{}
	fwd := capture.NewPublishForwarder(pub)

	ev := capture.ImageEvent{ID: "id-1", ImageURI: "gs://b/k", CameraID: "cam", Timestamp: time.Unix(0, 0).UTC(), Source: capture.SourceFileWatch}
	require.NoError(t, fwd.Forward(context.Background(), ev))

	assert.Equal(t, []byte("cam"), pub.key)
	assert.Equal(t, "capture.uploaded", pub.headers["event_type"])
	assert.Equal(t, "file_watch", pub.headers["source"])

	var decoded capture.ImageEvent
	require.NoError(t, json.Unmarshal(pub.value, &decoded))
	assert.Equal(t, ev, decoded)
}
