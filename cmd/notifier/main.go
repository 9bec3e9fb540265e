package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/camflow/internal/notifier"
	"github.com/your-org/camflow/pkg/config"
	"github.com/your-org/camflow/pkg/logger"
)

var mcpFlag bool

var rootCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Camera event notification and query service",
	Long: `Notifier receives processed image events, keeps a bounded in-memory log of
recent images and notifications, and answers queries over HTTP.

With --mcp it instead serves the same data as MCP tools and resources over
stdin/stdout for chat assistants.`,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	rootCmd.Flags().BoolVar(&mcpFlag, "mcp", false, "Serve MCP over stdio instead of HTTP")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	newLogger := logger.New
	if mcpFlag {
		newLogger = logger.NewStderr
	}
	logr, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	logr = logr.Named("notifier")

	store := notifier.NewStore(notifier.StoreParams{
		MaxImages:        cfg.Notifier.MaxRecentImages,
		MaxNotifications: cfg.Notifier.MaxNotifications,
		Logger:           logr,
	})

	if mcpFlag {
		logr.Info("notifier serving mcp over stdio")
		return notifier.NewMCPServer(store, cfg.App.Version).Run(ctx, &mcp.StdioTransport{})
	}

	server := &http.Server{
		Addr:         cfg.Notifier.Addr,
		Handler:      notifier.NewHTTPHandler(store, logr).Router(),
		ReadTimeout:  cfg.Notifier.ReadTimeout,
		WriteTimeout: cfg.Notifier.WriteTimeout,
		IdleTimeout:  cfg.Notifier.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("notifier starting", zap.String("addr", cfg.Notifier.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logr.Error("notifier failed", zap.Error(err))
		return err
	}
	return nil
}
