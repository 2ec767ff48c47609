package x11

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// ErrNoIcon is returned when a window publishes no usable _NET_WM_ICON.
var ErrNoIcon = errors.New("no _NET_WM_ICON")

// WindowIcon returns the _NET_WM_ICON entry best suited for a square of
// size pixels: the smallest icon at least that large, else the largest one.
func (c *Connection) WindowIcon(windowID xproto.Window, size int) (image.Image, error) {
	icons, err := ewmh.WmIconGet(c.XUtil, windowID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoIcon, err)
	}
	best, ok := pickIcon(icons, size)
	if !ok {
		return nil, ErrNoIcon
	}
	return iconImage(best)
}

func pickIcon(icons []ewmh.WmIcon, size int) (ewmh.WmIcon, bool) {
	var best ewmh.WmIcon
	found := false
	for _, icon := range icons {
		if icon.Width == 0 || icon.Height == 0 {
			continue
		}
		if uint(len(icon.Data)) < icon.Width*icon.Height {
			continue
		}
		if !found {
			best, found = icon, true
			continue
		}
		cur, prev := int(icon.Width), int(best.Width)
		switch {
		case prev < size && cur > prev:
			best = icon
		case prev >= size && cur >= size && cur < prev:
			best = icon
		}
	}
	return best, found
}

// iconImage converts packed ARGB cardinals (not premultiplied) to NRGBA.
func iconImage(icon ewmh.WmIcon) (image.Image, error) {
	w, h := int(icon.Width), int(icon.Height)
	if w <= 0 || h <= 0 || len(icon.Data) < w*h {
		return nil, ErrNoIcon
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			argb := uint32(icon.Data[y*w+x])
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(argb >> 16),
				G: uint8(argb >> 8),
				B: uint8(argb),
				A: uint8(argb >> 24),
			})
		}
	}
	return img, nil
}
