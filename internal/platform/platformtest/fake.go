// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/1broseidon/xswitcher/internal/platform"
)

// Call records one Activate or Close request.
type Call struct {
	ID   platform.WindowID
	Time platform.Timestamp
}

// Backend is a scripted window manager. Closing a window removes it from
// the list unless a close error is configured for it.
type Backend struct {
	mu sync.Mutex

	windows    []platform.Window
	noSession  bool
	windowsErr error
	closeErrs  map[platform.WindowID]error
	clock      platform.Timestamp

	listCalls int
	activated []Call
	closed    []Call
	journal   []string
}

var _ platform.Backend = (*Backend)(nil)

// New returns a fake backend seeded with windows.
func New(windows ...platform.Window) *Backend {
	return &Backend{
		windows:   append([]platform.Window(nil), windows...),
		closeErrs: make(map[platform.WindowID]error),
		clock:     1000,
	}
}

// Window builds a visible window with a solid 16px icon.
func Window(id platform.WindowID, title, class, workspace string) platform.Window {
	return platform.Window{
		ID:        id,
		Title:     title,
		ClassName: class,
		Workspace: workspace,
		Icon:      SolidIcon(16),
	}
}

// SolidIcon returns an icon source producing a size x size opaque square.
func SolidIcon(size int) platform.IconSource {
	return platform.IconFunc(func() (image.Image, error) {
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 30, G: 144, B: 255, A: 255})
			}
		}
		return img, nil
	})
}

// SetWindows replaces the live window list.
func (b *Backend) SetWindows(windows ...platform.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append([]platform.Window(nil), windows...)
}

// SetNoSession makes Windows report platform.ErrNoSession.
func (b *Backend) SetNoSession(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noSession = v
}

// SetWindowsErr makes Windows fail with err.
func (b *Backend) SetWindowsErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windowsErr = err
}

// FailClose makes Close of id fail with err.
func (b *Backend) FailClose(id platform.WindowID, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeErrs[id] = err
}

// ListCalls returns how many times Windows was called.
func (b *Backend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls
}

// Activated returns the recorded Activate calls.
func (b *Backend) Activated() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.activated...)
}

// Closed returns the recorded Close calls, including failed ones.
func (b *Backend) Closed() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.closed...)
}

// Journal returns the ordered log of sync/activate/close operations.
func (b *Backend) Journal() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.journal...)
}

// Live returns the ids of windows still open.
func (b *Backend) Live() []platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]platform.WindowID, 0, len(b.windows))
	for _, w := range b.windows {
		ids = append(ids, w.ID)
	}
	return ids
}

// Windows implements platform.Backend.
func (b *Backend) Windows() ([]platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.noSession {
		return nil, platform.ErrNoSession
	}
	if b.windowsErr != nil {
		return nil, b.windowsErr
	}
	return append([]platform.Window(nil), b.windows...), nil
}

// ServerTime implements platform.Backend; every call advances the clock.
func (b *Backend) ServerTime() (platform.Timestamp, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock++
	return b.clock, nil
}

// SyncEvents implements platform.Backend.
func (b *Backend) SyncEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.journal = append(b.journal, "sync")
}

// Activate implements platform.Backend.
func (b *Backend) Activate(id platform.WindowID, ts platform.Timestamp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activated = append(b.activated, Call{ID: id, Time: ts})
	b.journal = append(b.journal, fmt.Sprintf("activate:%d", id))
	return nil
}

// Close implements platform.Backend.
func (b *Backend) Close(id platform.WindowID, ts platform.Timestamp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, Call{ID: id, Time: ts})
	b.journal = append(b.journal, fmt.Sprintf("close:%d", id))
	if err := b.closeErrs[id]; err != nil {
		return err
	}
	for i, w := range b.windows {
		if w.ID == id {
			b.windows = append(b.windows[:i], b.windows[i+1:]...)
			break
		}
	}
	return nil
}
