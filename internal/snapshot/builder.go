package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/metrics"
	"github.com/1broseidon/xswitcher/internal/platform"
)

// IconResolver materializes an icon for an application key.
type IconResolver interface {
	Resolve(appKey string, src platform.IconSource) (string, error)
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Partial skips windows that fail to resolve instead of failing the
	// whole build.
	Partial bool
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Builder produces snapshots from a window-manager backend.
type Builder struct {
	backend platform.Backend
	icons   IconResolver
	partial bool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBuilder creates a Builder.
func NewBuilder(backend platform.Backend, icons IconResolver, opts BuilderOptions) *Builder {
	return &Builder{
		backend: backend,
		icons:   icons,
		partial: opts.Partial,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}
}

// Build enumerates windows, drops hidden ones and resolves each remaining
// window's application key, workspace and icon. Without a window-manager
// session the snapshot is empty.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := b.build(ctx)
	b.metrics.SnapshotBuilt(time.Since(start), snap.Len(), err)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("snapshot built",
		zap.Int("windows", snap.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return snap, nil
}

func (b *Builder) build(ctx context.Context) (*Snapshot, error) {
	windows, err := b.backend.Windows()
	if errors.Is(err, platform.ErrNoSession) {
		b.logger.Debug("no window manager session, returning empty snapshot", zap.Error(err))
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}

	snap := &Snapshot{Records: make([]Record, 0, len(windows))}
	for _, win := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsHidden(win.State) {
			continue
		}

		rec, err := b.record(win)
		if err != nil {
			if !b.partial {
				return nil, err
			}
			b.logger.Warn("skipping window",
				zap.Uint32("window", uint32(win.ID)),
				zap.String("title", win.Title),
				zap.Error(err))
			continue
		}
		snap.Records = append(snap.Records, rec)
	}
	return snap, nil
}

func (b *Builder) record(win platform.Window) (Record, error) {
	if win.WorkspaceErr != nil {
		return Record{}, fmt.Errorf("window 0x%x: %w", uint32(win.ID), win.WorkspaceErr)
	}

	appKey := AppKey(win.ClassName)
	ref, err := b.icons.Resolve(appKey, win.Icon)
	if err != nil {
		return Record{}, fmt.Errorf("window 0x%x: %w", uint32(win.ID), err)
	}

	return Record{
		ID:        win.ID,
		Title:     win.Title,
		Workspace: win.Workspace,
		AppKey:    appKey,
		IconRef:   ref,
	}, nil
}
