package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/bootstrap"
	"github.com/your-org/camflow/internal/capture"
	"github.com/your-org/camflow/internal/watcher"
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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Error("orchestrator failed", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	traceShutdown, err := bootstrap.Tracing(ctx, cfg, cfg.App.Name+"-orchestrator")
	if err != nil {
		return err
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	forwarder, closeForwarder, err := bootstrap.Forwarder(cfg, logr)
	if err != nil {
		return err
	}
	defer closeForwarder(context.Background()) //nolint:errcheck

	var settler watcher.Settler = watcher.FixedDelay(cfg.Watch.SettleDelay)
	if cfg.Watch.SettleMode == "stable" {
		settler = watcher.SizeStable{
			Interval: cfg.Watch.StableInterval,
			Samples:  cfg.Watch.StableSamples,
			Timeout:  cfg.Watch.StableTimeout,
		}
	}

	named := logr.Named("watcher")
	handler := watcher.NewHandler(watcher.HandlerParams{
		Uploader: capture.NewUploader(capture.Params{
			Store:     store,
			Forwarder: forwarder,
			Logger:    named,
		}),
		Settler:           settler,
		CameraID:          cfg.Camera.ID,
		DetectContentType: cfg.Watch.DetectContentType,
		Logger:            named,
	})

	dir := cfg.Watch.ResolveDir()
	logr.Info("orchestrator starting",
		zap.String("project", cfg.Storage.Project),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("camera_id", cfg.Camera.ID),
		zap.String("watch_dir", dir),
		zap.String("settle_mode", cfg.Watch.SettleMode),
	)

	w := watcher.New(watcher.Params{
		Dir:             dir,
		Handler:         handler,
		Workers:         cfg.Watch.Workers,
		QueueSize:       cfg.Watch.QueueSize,
		ScanExisting:    cfg.Watch.ScanExisting,
		ShutdownTimeout: cfg.Watch.ShutdownTimeout,
		Logger:          named,
	})
	return w.Run(ctx)
}
