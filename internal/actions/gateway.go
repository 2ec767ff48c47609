// Package actions performs activate and close requests against live windows.
//
// Every operation re-enumerates the window manager's client list instead of
// trusting an id from an earlier snapshot: X recycles ids, and the window may
// be gone. A request for a window that no longer exists is a no-op.
package actions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/metrics"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/snapshot"
)

// Options configures a Gateway.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Gateway dispatches window actions to a backend.
type Gateway struct {
	backend platform.Backend
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewGateway creates a Gateway.
func NewGateway(backend platform.Backend, opts Options) *Gateway {
	return &Gateway{
		backend: backend,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}
}

// Dispatch runs a and returns how many windows it acted on.
func (g *Gateway) Dispatch(ctx context.Context, a Action) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	switch a.Kind {
	case KindActivate:
		return g.Activate(ctx, a.WindowID)
	case KindClose:
		return g.Close(ctx, a.WindowID)
	default:
		return g.CloseAll(ctx, a.AppKey)
	}
}

// Activate focuses the live window with the given id. Pending X events are
// drained first; activating straight after a round of property queries is
// otherwise ignored by some window managers.
func (g *Gateway) Activate(ctx context.Context, id platform.WindowID) (int, error) {
	found, err := g.lookup(ctx, id)
	if err != nil || !found {
		return 0, err
	}

	g.backend.SyncEvents()
	ts, err := g.backend.ServerTime()
	if err == nil {
		err = g.backend.Activate(id, ts)
	}
	g.metrics.ActionDone(string(KindActivate), err)
	if err != nil {
		return 0, fmt.Errorf("failed to activate window 0x%x: %w", uint32(id), err)
	}
	g.logger.Debug("window activated", zap.Uint32("window", uint32(id)), zap.Uint32("time", uint32(ts)))
	return 1, nil
}

// Close asks the window manager to close the live window with the given id.
func (g *Gateway) Close(ctx context.Context, id platform.WindowID) (int, error) {
	found, err := g.lookup(ctx, id)
	if err != nil || !found {
		return 0, err
	}
	if err := g.closeOne(id); err != nil {
		return 0, err
	}
	return 1, nil
}

// CloseAll closes every live window whose application key matches appKey.
// Each close is attempted independently; failures are logged and joined
// into the returned error after all targets were tried.
func (g *Gateway) CloseAll(ctx context.Context, appKey string) (int, error) {
	key := snapshot.AppKey(appKey)
	windows, err := g.liveWindows()
	if err != nil || len(windows) == 0 {
		return 0, err
	}

	var errs []error
	closed := 0
	for _, w := range windows {
		if snapshot.AppKey(w.ClassName) != key {
			continue
		}
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		if err := g.closeOne(w.ID); err != nil {
			g.logger.Warn("close failed, continuing with remaining windows",
				zap.String("app", key),
				zap.Uint32("window", uint32(w.ID)),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		closed++
	}
	return closed, errors.Join(errs...)
}

func (g *Gateway) closeOne(id platform.WindowID) error {
	ts, err := g.backend.ServerTime()
	if err == nil {
		err = g.backend.Close(id, ts)
	}
	g.metrics.ActionDone(string(KindClose), err)
	if err != nil {
		return fmt.Errorf("failed to close window 0x%x: %w", uint32(id), err)
	}
	g.logger.Debug("window close requested", zap.Uint32("window", uint32(id)))
	return nil
}

func (g *Gateway) lookup(ctx context.Context, id platform.WindowID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	windows, err := g.liveWindows()
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.ID == id {
			return true, nil
		}
	}
	g.logger.Debug("window no longer exists", zap.Uint32("window", uint32(id)))
	return false, nil
}

// liveWindows treats a missing session as an empty window list.
func (g *Gateway) liveWindows() ([]platform.Window, error) {
	windows, err := g.backend.Windows()
	if errors.Is(err, platform.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	return windows, nil
}
