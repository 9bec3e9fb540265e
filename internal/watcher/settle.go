package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrUnstable is returned by SizeStable when a file keeps changing past its
// timeout.
var ErrUnstable = errors.New("file did not stabilise")

// Settler waits until a freshly created file is likely complete. A nil error
// does not guarantee the file still exists; the handler validates that.
type Settler interface {
	Settle(ctx context.Context, path string) error
}

// FixedDelay waits a fixed time after detection.
type FixedDelay time.Duration

func (d FixedDelay) Settle(ctx context.Context, _ string) error {
	return sleep(ctx, time.Duration(d))
}

// SizeStable polls the file until its size and modification time are the same
// for Samples consecutive observations taken Interval apart.
type SizeStable struct {
	Interval time.Duration
	Samples  int
	Timeout  time.Duration
}

func (s SizeStable) Settle(ctx context.Context, path string) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	samples := max(s.Samples, 2)

	var lastSize int64 = -1
	var lastMod time.Time
	same := 0
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
			same++
		} else {
			same = 1
			lastSize, lastMod = info.Size(), info.ModTime()
		}
		if same >= samples {
			return nil
		}
		if err := sleep(ctx, s.Interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%s: %w", path, ErrUnstable)
			}
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
