// Package tui is an interactive terminal window picker built on bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

// ErrNotTerminal is returned when stdin or stdout is not a TTY.
var ErrNotTerminal = errors.New("tui requires an interactive terminal (stdin/stdout must be TTYs)")

// TUI runs the window picker against a switcher.API.
type TUI struct {
	api    switcher.API
	logger *zap.Logger
}

// New creates a new TUI instance.
func New(api switcher.API, logger *zap.Logger) *TUI {
	return &TUI{api: api, logger: logging.OrNop(logger)}
}

// Run starts the picker and blocks until the user quits or activates a
// window. It returns the last action error, if any.
func (t *TUI) Run(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNotTerminal
	}

	p := tea.NewProgram(newModel(ctx, t.api, t.logger), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(model); ok && m.fatalErr != nil {
		return m.fatalErr
	}
	return nil
}
