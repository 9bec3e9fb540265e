package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/capture"
)

// DefaultContentType is used for every watched image unless content type
// detection is enabled.
const DefaultContentType = "image/jpeg"

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Result is the terminal state of one detected file.
type Result int

const (
	// Rejected files are ignored without logging: wrong extension, vanished
	// during settling, or not a regular file.
	Rejected Result = iota
	Uploaded
	UploadFailed
	// DeleteFailed means the upload succeeded but the local copy remains.
	DeleteFailed
)

func (r Result) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Uploaded:
		return "uploaded"
	case UploadFailed:
		return "upload_failed"
	case DeleteFailed:
		return "delete_failed"
	default:
		return "unknown"
	}
}

// Uploader is satisfied by *capture.Uploader.
type Uploader interface {
	Upload(ctx context.Context, ev capture.Event, contentType string) capture.Outcome
}

// Handler takes one created file through settle, validate, upload and delete.
type Handler struct {
	uploader          Uploader
	settler           Settler
	cameraID          string
	detectContentType bool
	logger            *zap.Logger
	now               func() time.Time
	remove            func(string) error
}

type HandlerParams struct {
	Uploader Uploader
	// Settler defaults to FixedDelay(200ms).
	Settler  Settler
	CameraID string
	// DetectContentType labels .png files image/png instead of image/jpeg.
	DetectContentType bool
	Logger            *zap.Logger
	Now               func() time.Time
}

func NewHandler(p HandlerParams) *Handler {
	settler := p.Settler
	if settler == nil {
		settler = FixedDelay(200 * time.Millisecond)
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		uploader:          p.Uploader,
		settler:           settler,
		cameraID:          p.CameraID,
		detectContentType: p.DetectContentType,
		logger:            logger.With(zap.String("camera_id", p.CameraID)),
		now:               now,
		remove:            os.Remove,
	}
}

// Handle processes one file. Failures are logged here and never returned;
// an UploadFailed file is left in place and not retried.
func (h *Handler) Handle(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	contentType, ok := allowedExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return Rejected
	}
	if !h.detectContentType {
		contentType = DefaultContentType
	}

	if err := h.settler.Settle(ctx, path); err != nil {
		if ctx.Err() == nil && !os.IsNotExist(err) {
			h.logger.Warn("file did not settle", zap.String("path", path), zap.Error(err))
		}
		return Rejected
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Rejected
	}

	ev := capture.NewFileEvent(h.cameraID, path, name, h.now())
	outcome := h.uploader.Upload(ctx, ev, contentType)
	outcome.Log(h.logger, zap.String("path", path), zap.Int64("size_bytes", info.Size()))
	if !outcome.OK() {
		return UploadFailed
	}

	if err := h.remove(path); err != nil {
		h.logger.Warn("delete local file failed", zap.String("path", path), zap.Error(err))
		return DeleteFailed
	}
	return Uploaded
}
