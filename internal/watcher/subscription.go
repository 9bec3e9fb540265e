package watcher

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Subscription delivers creation events for entries of one directory. It does
// not descend into subdirectories.
type Subscription struct {
	dir    string
	fs     *fsnotify.Watcher
	logger *zap.Logger
}

// Subscribe starts watching dir. Events that occur after Subscribe returns are
// delivered by Run.
func Subscribe(dir string, logger *zap.Logger) (*Subscription, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Subscription{dir: dir, fs: fw, logger: logger}, nil
}

// Run calls onCreated for every non-directory entry created in the directory
// until ctx is cancelled. onCreated runs on the Run goroutine.
func (s *Subscription) Run(ctx context.Context, onCreated func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			// A vanished entry is still passed on; the handler rejects it.
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				continue
			}
			onCreated(ev.Name)
		case err, ok := <-s.fs.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("fs watcher error", zap.String("dir", s.dir), zap.Error(err))
		}
	}
}

func (s *Subscription) Close() error {
	return s.fs.Close()
}
