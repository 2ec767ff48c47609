package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const clockPropertyName = "_XSWITCHER_TIMESTAMP"

// serverClock obtains fresh server timestamps by appending a zero-length
// property to a private input-only window and reading the PropertyNotify
// event it produces. The connection is owned exclusively by the clock.
type serverClock struct {
	mu   sync.Mutex
	conn *xgb.Conn
	win  xproto.Window
	atom xproto.Atom
}

func newServerClock(display string) (*serverClock, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(conn, 0, win, screen.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, screen.RootVisual,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create clock window: %w", err)
	}

	atomReply, err := xproto.InternAtom(conn, false,
		uint16(len(clockPropertyName)), clockPropertyName).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to intern %s: %w", clockPropertyName, err)
	}

	return &serverClock{conn: conn, win: win, atom: atomReply.Atom}, nil
}

func (c *serverClock) now() (xproto.Timestamp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := xproto.ChangePropertyChecked(c.conn, xproto.PropModeAppend, c.win,
		c.atom, xproto.AtomString, 8, 0, nil).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to touch clock property: %w", err)
	}

	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return 0, fmt.Errorf("x connection closed while waiting for server time")
		}
		if xerr != nil {
			return 0, fmt.Errorf("x error while waiting for server time: %v", xerr)
		}
		if pn, ok := ev.(xproto.PropertyNotifyEvent); ok && pn.Window == c.win && pn.Atom == c.atom {
			return pn.Time, nil
		}
	}
}

func (c *serverClock) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	xproto.DestroyWindow(c.conn, c.win)
	c.conn.Close()
}
