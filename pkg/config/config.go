package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for a camflow process.
type Config struct {
	App      AppConfig
	Camera   CameraConfig
	Poll     PollConfig
	Watch    WatchConfig
	Storage  StorageConfig
	Forward  ForwardConfig
	Kafka    KafkaConfig
	Notifier NotifierConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"camflow"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

type CameraConfig struct {
	ID       string        `env:"CAMERA_ID" envDefault:"c2m-default"`
	URL      string        `env:"CAMERA_URL" envDefault:"http://192.168.1.10:88/cgi-bin/CGIProxy.fcgi?cmd=snapPicture2"`
	Username string        `env:"CAMERA_USERNAME"`
	Password string        `env:"CAMERA_PASSWORD"`
	Timeout  time.Duration `env:"CAMERA_TIMEOUT" envDefault:"5s"`
	MaxBytes int64         `env:"CAMERA_MAX_BYTES" envDefault:"33554432"`
}

type PollConfig struct {
	Interval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
}

type WatchConfig struct {
	Dir               string        `env:"WATCH_DIR"`
	CameraUser        string        `env:"CAMERA_USER" envDefault:"foscam"`
	SettleMode        string        `env:"WATCH_SETTLE_MODE" envDefault:"fixed"`
	SettleDelay       time.Duration `env:"WATCH_SETTLE_DELAY" envDefault:"200ms"`
	StableInterval    time.Duration `env:"WATCH_STABLE_INTERVAL" envDefault:"100ms"`
	StableSamples     int           `env:"WATCH_STABLE_SAMPLES" envDefault:"3"`
	StableTimeout     time.Duration `env:"WATCH_STABLE_TIMEOUT" envDefault:"10s"`
	Workers           int           `env:"WATCH_WORKERS" envDefault:"1"`
	QueueSize         int           `env:"WATCH_QUEUE_SIZE" envDefault:"256"`
	ScanExisting      bool          `env:"WATCH_SCAN_EXISTING" envDefault:"false"`
	DetectContentType bool          `env:"WATCH_DETECT_CONTENT_TYPE" envDefault:"false"`
	ShutdownTimeout   time.Duration `env:"WATCH_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"gcs"`
	Project   string `env:"STORAGE_PROJECT" envDefault:"mi-sandbox"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"pz-foscam-images"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	// Root is the directory used by the file provider.
	Root string `env:"STORAGE_ROOT" envDefault:"/var/lib/camflow/objects"`
}

type ForwardConfig struct {
	Mode        string        `env:"FORWARD_MODE" envDefault:"none"`
	NotifierURL string        `env:"FORWARD_NOTIFIER_URL" envDefault:"http://localhost:8080"`
	Timeout     time.Duration `env:"FORWARD_TIMEOUT" envDefault:"5s"`
}

type KafkaConfig struct {
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	CaptureTopic     string        `env:"KAFKA_CAPTURE_TOPIC" envDefault:"camflow.captures"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"1"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type NotifierConfig struct {
	Addr             string        `env:"NOTIFIER_ADDR" envDefault:":8080"`
	ReadTimeout      time.Duration `env:"NOTIFIER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout     time.Duration `env:"NOTIFIER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout      time.Duration `env:"NOTIFIER_IDLE_TIMEOUT" envDefault:"120s"`
	MaxRecentImages  int           `env:"NOTIFIER_MAX_RECENT_IMAGES" envDefault:"100"`
	MaxNotifications int           `env:"NOTIFIER_MAX_NOTIFICATIONS" envDefault:"1000"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=camflow"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Poll.Interval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.Poll.Interval)
	}
	if cfg.Watch.Workers < 1 {
		return nil, fmt.Errorf("WATCH_WORKERS must be at least 1, got %d", cfg.Watch.Workers)
	}
	return cfg, nil
}

// ResolveDir returns the directory the watcher should monitor. An explicit
// WATCH_DIR wins; otherwise the camera user's upload directory is used, falling
// back to /home/foscam/uploads when that directory does not exist.
func (w WatchConfig) ResolveDir() string {
	if w.Dir != "" {
		return w.Dir
	}
	dir := fmt.Sprintf("/home/%s/uploads", w.CameraUser)
	if _, err := os.Stat(dir); err != nil {
		return "/home/foscam/uploads"
	}
	return dir
}
