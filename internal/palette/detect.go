package palette

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoBackend is returned when no supported launcher is installed.
var ErrNoBackend = errors.New("no palette backend found in PATH")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// detectOrder lists launchers by preference. fuzzel and wofi only draw on
// Wayland, so they are considered only when a compositor is present (windows
// are then XWayland clients).
func detectOrder(wayland bool) []string {
	if wayland {
		return []string{"rofi", "fuzzel", "wofi", "dmenu"}
	}
	return []string{"rofi", "dmenu"}
}

// DetectBackend returns the first launcher from detectOrder found in PATH.
func DetectBackend() (string, error) {
	order := detectOrder(os.Getenv("WAYLAND_DISPLAY") != "")
	for _, name := range order {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w (looked for: %s)", ErrNoBackend, strings.Join(order, ", "))
}
