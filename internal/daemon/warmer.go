package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/snapshot"
)

// SnapshotSource returns the current, possibly cached, window snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)
}

// WarmerConfig holds configuration for the warmer.
type WarmerConfig struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Warmer periodically touches the snapshot cache so an expired snapshot is
// rebuilt in the background rather than on the next launcher query.
type Warmer struct {
	interval time.Duration
	source   SnapshotSource
	logger   *zap.Logger
}

// NewWarmer creates a warmer. A non-positive interval defaults to one second.
func NewWarmer(cfg WarmerConfig, source SnapshotSource) *Warmer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Warmer{
		interval: interval,
		source:   source,
		logger:   logging.OrNop(cfg.Logger),
	}
}

// Run starts the warm loop. Blocks until ctx is cancelled.
func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("warmer started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("warmer stopped")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// WarmNow runs a single pass immediately and returns the number of windows
// in the resulting snapshot.
func (w *Warmer) WarmNow(ctx context.Context) int {
	return w.warm(ctx)
}

func (w *Warmer) warm(ctx context.Context) (n int) {
	// A panic in a backend must not take the daemon down.
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("warmer panic recovered", zap.Any("panic", r))
			n = 0
		}
	}()

	snap, err := w.source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("warmer: failed to build snapshot", zap.Error(err))
		}
		return 0
	}
	w.logger.Debug("warmer: snapshot ready", zap.Int("windows", snap.Len()))
	return snap.Len()
}
