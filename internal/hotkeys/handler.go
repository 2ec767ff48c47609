// Package hotkeys binds global X11 key sequences to callbacks.
package hotkeys

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/platform"
)

// ErrNoX11 is returned when the backend does not expose an X connection.
var ErrNoX11 = errors.New("hotkeys need an X11 backend")

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *zap.Logger

	mu       sync.Mutex
	bindings []*binding
}

type binding struct {
	sequence string
	busy     atomic.Bool
	fn       func()
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend platform.Backend, logger *zap.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, ErrNoX11
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   accessor.RootWindow(),
		logger: logging.OrNop(logger),
	}, nil
}

// Register binds keySequence (e.g. "Mod4-grave") to fn. fn runs on its own
// goroutine; presses arriving while it still runs are dropped so a held key
// cannot stack up palettes.
func (h *Handler) Register(keySequence string, fn func()) error {
	seq, err := NormalizeSequence(keySequence)
	if err != nil {
		return err
	}

	b := &binding{sequence: seq, fn: fn}
	err = keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.trigger(b)
	}).Connect(h.xu, h.root, seq, true)
	if err != nil {
		return fmt.Errorf("failed to grab %q: %w", seq, err)
	}

	h.mu.Lock()
	h.bindings = append(h.bindings, b)
	h.mu.Unlock()
	h.logger.Info("hotkey registered", zap.String("sequence", seq))
	return nil
}

// Unregister releases every grab made by this handler.
func (h *Handler) Unregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.bindings) == 0 {
		return
	}
	keybind.Detach(h.xu, h.root)
	for _, b := range h.bindings {
		h.logger.Debug("hotkey released", zap.String("sequence", b.sequence))
	}
	h.bindings = nil
}

func (h *Handler) trigger(b *binding) {
	if !b.busy.CompareAndSwap(false, true) {
		h.logger.Debug("hotkey ignored, previous run still active", zap.String("sequence", b.sequence))
		return
	}
	h.logger.Debug("hotkey triggered", zap.String("sequence", b.sequence))
	go func() {
		defer b.busy.Store(false)
		b.fn()
	}()
}

// NormalizeSequence canonicalizes a key sequence into the "Mod-Mod-key" form
// keybind parses. "+" is accepted as a separator and "super" as Mod4.
func NormalizeSequence(seq string) (string, error) {
	seq = strings.TrimSpace(seq)
	if seq == "" {
		return "", errors.New("empty key sequence")
	}
	parts := strings.FieldsFunc(seq, func(r rune) bool { return r == '-' || r == '+' })
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid key sequence %q", seq)
	}

	out := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			out = append(out, p)
			break
		}
		mod, ok := modifierAliases[strings.ToLower(p)]
		if !ok {
			return "", fmt.Errorf("unknown modifier %q in %q", p, seq)
		}
		out = append(out, mod)
	}
	return strings.Join(out, "-"), nil
}

var modifierAliases = map[string]string{
	"shift":   "Shift",
	"lock":    "Lock",
	"control": "Control",
	"ctrl":    "Control",
	"mod1":    "Mod1",
	"alt":     "Mod1",
	"mod2":    "Mod2",
	"mod3":    "Mod3",
	"mod4":    "Mod4",
	"super":   "Mod4",
	"win":     "Mod4",
	"mod5":    "Mod5",
	"any":     "Any",
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	xevent.IgnoreMods = ignoreMasks(
		uint16(xproto.ModMaskLock),
		modMaskForKeysym(xu, "Num_Lock"),
		modMaskForKeysym(xu, "Scroll_Lock"),
	)
}

// ignoreMasks returns every combination of the lock modifiers, so a grab
// still fires with CapsLock or NumLock on.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	ignore := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}
	sort.Slice(ignore, func(i, j int) bool { return ignore[i] < ignore[j] })
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
