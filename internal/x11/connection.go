package x11

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil   *xgbutil.XUtil
	Root    xproto.Window
	display string

	looping atomic.Bool

	clockOnce sync.Once
	clock     *serverClock
	clockErr  error
}

// NewConnection connects to the given display. An empty display means $DISPLAY.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		display: display,
	}, nil
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	c.looping.Store(true)
	defer c.looping.Store(false)
	xevent.Main(c.XUtil)
}

// StopEventLoop makes a running EventLoop return.
func (c *Connection) StopEventLoop() {
	if c.looping.Load() {
		xevent.Quit(c.XUtil)
	}
}

// Sync forces a round trip so every request sent so far has been processed
// by the server. When no event loop is consuming events, queued events are
// read and discarded so stale state does not linger.
func (c *Connection) Sync() {
	c.XUtil.Sync()
	if c.looping.Load() {
		return
	}
	xevent.Read(c.XUtil, false)
	for !xevent.Empty(c.XUtil) {
		xevent.Dequeue(c.XUtil)
	}
}

// ServerTime returns the current X server time. It uses a dedicated
// connection so it never competes with the event loop for events.
func (c *Connection) ServerTime() (xproto.Timestamp, error) {
	c.clockOnce.Do(func() {
		c.clock, c.clockErr = newServerClock(c.display)
	})
	if c.clockErr != nil {
		return 0, fmt.Errorf("server clock unavailable: %w", c.clockErr)
	}
	ts, err := c.clock.now()
	if err != nil {
		return 0, err
	}
	c.XUtil.TimeSet(ts)
	return ts, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	if c.clock != nil {
		c.clock.close()
	}
	c.XUtil.Conn().Close()
}
