package palette

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/iconstore"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

const (
	prompt      = "windows"
	keysMessage = "Enter: activate | Alt+Return: close | Alt+d: close all of app"
)

// ErrNoWindows is returned when there is nothing to switch to.
var ErrNoWindows = errors.New("no windows to show")

// Switcher shows the window list in a launcher and runs the chosen action.
type Switcher struct {
	api     switcher.API
	backend Backend
	logger  *zap.Logger
}

// NewSwitcher creates a Switcher.
func NewSwitcher(api switcher.API, backend Backend, logger *zap.Logger) *Switcher {
	return &Switcher{api: api, backend: backend, logger: logging.OrNop(logger)}
}

// Run lists every window, lets the user pick one and dispatches the action
// bound to the key they picked it with. It returns the dispatched action.
func (s *Switcher) Run(ctx context.Context) (actions.Action, error) {
	items, err := s.api.Query(ctx, "")
	if err != nil {
		return actions.Action{}, fmt.Errorf("failed to list windows: %w", err)
	}
	if len(items) == 0 {
		return actions.Action{}, ErrNoWindows
	}

	message := ""
	if s.backend.Capabilities().CustomKeys {
		message = keysMessage
	}

	result, err := s.backend.Show(prompt, PaletteItems(items), message)
	if err != nil {
		return actions.Action{}, err
	}
	if result.Index < 0 || result.Index >= len(items) {
		return actions.Action{}, fmt.Errorf("palette: index %d out of range", result.Index)
	}

	action, ok := ActionFor(items[result.Index], result.ExitCode)
	if !ok {
		return actions.Action{}, fmt.Errorf("palette: no action bound to exit code %d", result.ExitCode)
	}

	s.logger.Debug("palette selection",
		zap.String("action", action.Label),
		zap.Int("exit_code", result.ExitCode))
	if _, err := s.api.Dispatch(ctx, action); err != nil {
		return action, err
	}
	return action, nil
}

// PaletteItems converts query results to palette rows.
func PaletteItems(items []switcher.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, Item{
			Label:   it.Title,
			Subtext: it.Subtext,
			Icon:    iconstore.RefPath(it.IconRef),
			Info:    fmt.Sprintf("0x%x", uint32(it.WindowID)),
			Meta:    it.AppKey,
		})
	}
	return out
}

// ActionFor maps the key a row was picked with to one of the item's actions:
// Enter activates, Alt+Return closes, Alt+d closes every window of the app.
func ActionFor(item switcher.Item, exitCode int) (actions.Action, bool) {
	var want actions.Kind
	switch exitCode {
	case ExitNormal:
		want = actions.KindActivate
	case ExitCustom1:
		want = actions.KindClose
	case ExitCustom2:
		want = actions.KindCloseAll
	default:
		return actions.Action{}, false
	}
	for _, a := range item.Actions {
		if a.Kind == want {
			return a, true
		}
	}
	return actions.Action{}, false
}
