// Package bootstrap builds the process-wide dependencies shared by the
// camflow commands from a loaded config.
package bootstrap

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/capture"
	"github.com/your-org/camflow/internal/notifier"
	"github.com/your-org/camflow/pkg/config"
	"github.com/your-org/camflow/pkg/kafka"
	"github.com/your-org/camflow/pkg/storage/objectstore"
	"github.com/your-org/camflow/pkg/tracing"
)

// Tracing initialises OpenTelemetry for the named service.
func Tracing(ctx context.Context, cfg *config.Config, service string) (func(context.Context) error, error) {
	return tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  tracing.ParseAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: service,
	})
}

// Store opens the object store sink once per process.
func Store(ctx context.Context, cfg *config.Config) (objectstore.Client, error) {
	return objectstore.New(ctx, objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Project:   cfg.Storage.Project,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Root:      cfg.Storage.Root,
	})
}

// Forwarder builds the downstream forwarder selected by FORWARD_MODE. The
// returned close function flushes it.
func Forwarder(cfg *config.Config, logger *zap.Logger) (capture.Forwarder, func(context.Context) error, error) {
	noClose := func(context.Context) error { return nil }
	switch cfg.Forward.Mode {
	case "", "none":
		return capture.NopForwarder{}, noClose, nil
	case "http":
		logger.Info("forwarding image events over http", zap.String("url", cfg.Forward.NotifierURL))
		return notifier.NewClient(cfg.Forward.NotifierURL, cfg.Forward.Timeout), noClose, nil
	case "kafka":
		logger.Info("forwarding image events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.CaptureTopic),
		)
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.CaptureTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Kafka.Retries,
		})
		return capture.NewPublishForwarder(producer), producer.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported forward mode: %s", cfg.Forward.Mode)
	}
}
