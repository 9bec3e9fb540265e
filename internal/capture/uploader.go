package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/camflow/pkg/storage/objectstore"
)

const tracerName = "github.com/your-org/camflow/internal/capture"

// Uploader puts captures into the object store and forwards an event for
// each stored image. It is shared by the poll and watch pipelines.
type Uploader struct {
	store     objectstore.Client
	forwarder Forwarder
	logger    *zap.Logger
	tracer    trace.Tracer
}

type Params struct {
	Store     objectstore.Client
	Forwarder Forwarder
	Logger    *zap.Logger
}

// NewUploader constructs an Uploader. A nil Forwarder drops events.
func NewUploader(p Params) *Uploader {
	fwd := p.Forwarder
	if fwd == nil {
		fwd = NopForwarder{}
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		store:     p.Store,
		forwarder: fwd,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Upload stores the capture under its key with the given content type. The
// returned Outcome is the only report of the attempt; Upload does not log it.
func (u *Uploader) Upload(ctx context.Context, ev Event, contentType string) Outcome {
	key := ev.Key()
	ctx, span := u.tracer.Start(ctx, "capture.upload", trace.WithAttributes(
		attribute.String("camera.id", ev.CameraID),
		attribute.String("capture.source", ev.Source.String()),
		attribute.String("object.key", key),
	))
	defer span.End()

	outcome := Classify(key, u.put(ctx, ev, key, contentType))
	if !outcome.OK() {
		span.RecordError(outcome.Reason)
		span.SetStatus(codes.Error, outcome.Kind.String())
		return outcome
	}
	outcome.URI = u.store.URI(key)

	event := ImageEvent{
		ID:        uuid.NewString(),
		ImageURI:  outcome.URI,
		CameraID:  ev.CameraID,
		Timestamp: ev.DetectedAt.UTC(),
		Source:    ev.Source,
	}
	if err := u.forwarder.Forward(ctx, event); err != nil {
		// The stored object is authoritative; a lost event does not fail the upload.
		u.logger.Warn("forward image event failed", zap.String("key", key), zap.Error(err))
	}
	return outcome
}

func (u *Uploader) put(ctx context.Context, ev Event, key, contentType string) error {
	metadata := map[string]string{
		"camera_id":   ev.CameraID,
		"source":      ev.Source.String(),
		"captured_at": ev.DetectedAt.UTC().Format(time.RFC3339Nano),
	}
	if ev.OriginalFilename != "" {
		metadata["original_filename"] = ev.OriginalFilename
	}
	opts := objectstore.PutOptions{ContentType: contentType, Metadata: metadata}

	if ev.Path == "" {
		if len(ev.Data) == 0 {
			return fmt.Errorf("empty capture payload: %w", ErrPermanent)
		}
		return u.store.Put(ctx, key, bytes.NewReader(ev.Data), int64(len(ev.Data)), opts)
	}

	f, err := os.Open(ev.Path)
	if err != nil {
		return fmt.Errorf("open %s: %v: %w", ev.Path, err, ErrPermanent)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %v: %w", ev.Path, err, ErrPermanent)
	}
	return u.store.Put(ctx, key, f, info.Size(), opts)
}
