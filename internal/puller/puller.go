package puller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/camera"
	"github.com/your-org/camflow/internal/capture"
)

// SnapshotContentType is the content type of every polled image.
const SnapshotContentType = "image/jpeg"

// Fetcher is the camera capability the puller needs.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) ([]byte, error)
}

// Uploader is satisfied by *capture.Uploader.
type Uploader interface {
	Upload(ctx context.Context, ev capture.Event, contentType string) capture.Outcome
}

// Poller fetches a snapshot on every tick and uploads it from memory.
type Poller struct {
	fetcher  Fetcher
	uploader Uploader
	cameraID string
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type Params struct {
	Fetcher  Fetcher
	Uploader Uploader
	CameraID string
	Interval time.Duration
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(p Params) *Poller {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher:  p.Fetcher,
		uploader: p.Uploader,
		cameraID: p.CameraID,
		interval: p.Interval,
		logger:   logger.With(zap.String("camera_id", p.CameraID)),
		now:      now,
	}
}

// Run ticks immediately and then once per interval, measured from the end of
// the previous tick, until ctx is cancelled. Tick failures never stop it.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("puller started", zap.Duration("interval", p.interval))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("puller stopped")
			return nil
		case <-timer.C:
		}
		_ = p.Tick(ctx)
		timer.Reset(p.interval)
	}
}

// Tick runs one fetch and upload cycle and writes exactly one log line. The
// returned error is informational; nothing is retried within the tick.
func (p *Poller) Tick(ctx context.Context) error {
	data, err := p.fetcher.FetchSnapshot(ctx)
	if err != nil {
		var se *camera.StatusError
		switch {
		case errors.As(err, &se):
			p.logger.Error("snapshot HTTP error", zap.Int("status", se.StatusCode))
		case errors.Is(err, camera.ErrEmptySnapshot):
			p.logger.Error("snapshot HTTP error", zap.String("reason", "empty body"))
		default:
			p.logger.Error("snapshot fetch failed", zap.Error(err))
		}
		return err
	}

	outcome := p.uploader.Upload(ctx, capture.NewSnapshotEvent(p.cameraID, data, p.now()), SnapshotContentType)
	outcome.Log(p.logger, zap.Int("size_bytes", len(data)))
	if !outcome.OK() {
		return fmt.Errorf("upload snapshot: %w", outcome.Reason)
	}
	return nil
}
