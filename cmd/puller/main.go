package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/bootstrap"
	"github.com/your-org/camflow/internal/camera"
	"github.com/your-org/camflow/internal/capture"
	"github.com/your-org/camflow/internal/puller"
	"github.com/your-org/camflow/pkg/config"
	"github.com/your-org/camflow/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := bootstrap.Tracing(ctx, cfg, cfg.App.Name+"-puller")
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	forwarder, closeForwarder, err := bootstrap.Forwarder(cfg, logr)
	if err != nil {
		logr.Fatal("init forwarder", zap.Error(err))
	}
	defer closeForwarder(context.Background()) //nolint:errcheck

	cam, err := camera.NewClient(camera.Config{
		URL:      cfg.Camera.URL,
		Username: cfg.Camera.Username,
		Password: cfg.Camera.Password,
		Timeout:  cfg.Camera.Timeout,
		MaxBytes: cfg.Camera.MaxBytes,
	})
	if err != nil {
		logr.Fatal("init camera client", zap.Error(err))
	}

	named := logr.Named("puller")
	poller := puller.New(puller.Params{
		Fetcher: cam,
		Uploader: capture.NewUploader(capture.Params{
			Store:     store,
			Forwarder: forwarder,
			Logger:    named,
		}),
		CameraID: cfg.Camera.ID,
		Interval: cfg.Poll.Interval,
		Logger:   named,
	})

	logr.Info("puller starting",
		zap.String("camera_id", cfg.Camera.ID),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("provider", cfg.Storage.Provider),
	)
	if err := poller.Run(ctx); err != nil {
		logr.Error("puller failed", zap.Error(err))
	}
}
