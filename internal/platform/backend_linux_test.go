package platform

import (
	"errors"
	"testing"

	"github.com/1broseidon/xswitcher/internal/x11"
)

func TestDesktopLabel(t *testing.T) {
	names := []string{"mail", "", "web"}
	tests := []struct {
		desktop int
		want    string
	}{
		{desktop: 0, want: "mail"},
		{desktop: 1, want: "Workspace 2"},
		{desktop: 2, want: "web"},
		{desktop: 7, want: "Workspace 8"},
		{desktop: x11.StickyDesktop, want: "All workspaces"},
	}
	for _, tt := range tests {
		if got := desktopLabel(tt.desktop, names, "All workspaces"); got != tt.want {
			t.Fatalf("desktop %d: expected %q, got %q", tt.desktop, tt.want, got)
		}
	}
}

func TestStateFlag(t *testing.T) {
	tests := map[string]StateFlags{
		x11.StateSkipPager:        StateSkipPager,
		x11.StateSkipTaskbar:      StateSkipTaskbar,
		x11.StateHidden:           StateHidden,
		x11.StateSticky:           StateSticky,
		x11.StateFullscreen:       StateFullscreen,
		x11.StateDemandsAttention: StateDemandsAttention,

		"_NET_WM_STATE_MAXIMIZED_VERT": 0,
	}
	for atom, want := range tests {
		if got := stateFlag(atom); got != want {
			t.Fatalf("%s: expected %b, got %b", atom, want, got)
		}
	}
}

func TestNilConnectionReportsNoSession(t *testing.T) {
	b := NewLinuxBackend(nil, LinuxOptions{})

	if _, err := b.Windows(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Windows: expected ErrNoSession, got %v", err)
	}
	if _, err := b.ServerTime(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("ServerTime: expected ErrNoSession, got %v", err)
	}
	if err := b.Activate(1, 0); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Activate: expected ErrNoSession, got %v", err)
	}
	if b.XUtil() != nil {
		t.Fatal("expected nil XUtil without a connection")
	}
	b.SyncEvents()
	b.StopEventLoop()
	b.Disconnect()
}

func TestNewLinuxBackend_Defaults(t *testing.T) {
	b := NewLinuxBackend(nil, LinuxOptions{})
	if b.opts.IconSize != 48 || b.opts.StickyLabel != "All workspaces" {
		t.Fatalf("unexpected defaults %+v", b.opts)
	}
}
