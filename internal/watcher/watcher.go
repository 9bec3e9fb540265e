package watcher

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDirMissing is returned by Run when the watch directory does not exist.
var ErrDirMissing = errors.New("watch directory does not exist")

// Watcher feeds files created in a directory to a Handler.
//
// Files are sharded over the workers by path, so one path is never handled by
// two workers at once and its events are processed in order. With a single
// worker every file is handled serially.
type Watcher struct {
	dir             string
	handler         *Handler
	workers         int
	queueSize       int
	scanExisting    bool
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

type Params struct {
	Dir     string
	Handler *Handler
	Workers int
	// QueueSize is the per-worker backlog before the event loop blocks.
	QueueSize int
	// ScanExisting queues files already present at startup.
	ScanExisting bool
	// ShutdownTimeout bounds how long queued files may keep running after
	// cancellation. Zero cancels them immediately.
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

func New(p Params) *Watcher {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:             p.Dir,
		handler:         p.Handler,
		workers:         max(p.Workers, 1),
		queueSize:       max(p.QueueSize, 1),
		scanExisting:    p.ScanExisting,
		shutdownTimeout: p.ShutdownTimeout,
		logger:          logger.With(zap.String("dir", p.Dir)),
	}
}

// Run watches until ctx is cancelled, then drains queued files within the
// shutdown timeout. It returns ErrDirMissing, or a subscription error, only at
// startup; per-file failures never stop it.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", w.dir, ErrDirMissing)
	}

	sub, err := Subscribe(w.dir, w.logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	// Workers outlive ctx so queued files can finish; stopWork ends them.
	workCtx, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()

	queues := make([]chan string, w.workers)
	g := new(errgroup.Group)
	for i := range queues {
		q := make(chan string, w.queueSize)
		queues[i] = q
		g.Go(func() error {
			for path := range q {
				w.handle(workCtx, path)
			}
			return nil
		})
	}

	dispatch := func(path string) {
		q := queues[shard(path, len(queues))]
		select {
		case q <- path:
		case <-ctx.Done():
			w.logger.Warn("dropping file at shutdown", zap.String("path", path))
		}
	}

	w.logger.Info("watcher started", zap.Int("workers", w.workers), zap.Bool("scan_existing", w.scanExisting))
	if w.scanExisting {
		w.scan(dispatch)
	}
	runErr := sub.Run(ctx, dispatch)

	for _, q := range queues {
		close(q)
	}
	drained := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(drained)
	}()
	timer := time.NewTimer(w.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
		w.logger.Warn("shutdown timeout, abandoning in-flight files", zap.Duration("timeout", w.shutdownTimeout))
		stopWork()
		<-drained
	}
	w.logger.Info("watcher stopped")
	return runErr
}

func (w *Watcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic handling file", zap.String("path", path), zap.Any("panic", r))
		}
	}()
	w.handler.Handle(ctx, path)
}

func (w *Watcher) scan(dispatch func(string)) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("scan existing files failed", zap.Error(err))
		return
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		dispatch(filepath.Join(w.dir, e.Name()))
		n++
	}
	w.logger.Info("queued existing files", zap.Int("count", n))
}

func shard(path string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32() % uint32(n))
}
