// Package iconstore persists application icons in a flat, content-addressed
// directory. Files are named by the SHA-256 of the lowercased application
// key, so arbitrary WM_CLASS strings never reach the filesystem as path
// components. An existing file is never rewritten: presence alone means the
// icon is cached.
package iconstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/metrics"
	"github.com/1broseidon/xswitcher/internal/platform"
)

// RefPrefix is prepended to icon paths to form icon references.
const RefPrefix = "file:"

// DefaultSize is the edge length icons are scaled down to.
const DefaultSize = 48

// Options configures a Store.
type Options struct {
	// Size is the maximum edge length of stored icons; larger icons are
	// scaled down preserving aspect ratio.
	Size    int
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Store is the on-disk icon cache rooted at one directory.
type Store struct {
	dir     string
	size    int
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a store rooted at dir. The directory is created lazily on the
// first Resolve.
func New(dir string, opts Options) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("icon cache directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve icon cache directory %q: %w", dir, err)
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{
		dir:     abs,
		size:    size,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}, nil
}

// Dir returns the absolute cache root.
func (s *Store) Dir() string {
	return s.dir
}

// Key returns the file name used for an application key.
func Key(appKey string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(appKey)))
	return hex.EncodeToString(sum[:])
}

// Path returns where the icon for appKey lives, whether or not it exists yet.
func (s *Store) Path(appKey string) string {
	return filepath.Join(s.dir, Key(appKey))
}

// Ref returns the icon reference for a stored path.
func Ref(path string) string {
	return RefPrefix + path
}

// RefPath strips the reference prefix, returning a plain filesystem path.
func RefPath(ref string) string {
	return strings.TrimPrefix(ref, RefPrefix)
}

// Resolve returns a reference to the icon of appKey, asking src for pixels
// only when nothing is stored yet. Windows that publish no icon get a
// placeholder so every returned reference is readable.
func (s *Store) Resolve(appKey string, src platform.IconSource) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create icon cache %s: %w", s.dir, err)
	}

	path := s.Path(appKey)
	if _, err := os.Stat(path); err == nil {
		s.metrics.IconResolved("cached")
		return Ref(path), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat icon %s: %w", path, err)
	}

	outcome := "written"
	img, err := fetch(src)
	if errors.Is(err, platform.ErrNoIcon) {
		s.logger.Debug("window has no icon, storing placeholder", zap.String("app", appKey))
		img = placeholder(appKey, s.size)
		outcome = "placeholder"
	} else if err != nil {
		return "", fmt.Errorf("failed to read icon for %q: %w", appKey, err)
	}

	if err := writePNG(path, fit(img, s.size)); err != nil {
		return "", fmt.Errorf("failed to save icon for %q: %w", appKey, err)
	}

	s.logger.Debug("icon stored", zap.String("app", appKey), zap.String("path", path))
	s.metrics.IconResolved(outcome)
	return Ref(path), nil
}

func fetch(src platform.IconSource) (image.Image, error) {
	if src == nil {
		return nil, platform.ErrNoIcon
	}
	img, err := src.Icon()
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, platform.ErrNoIcon
	}
	return img, nil
}

// writePNG encodes to a temp file in the target directory and renames it
// into place, so concurrent readers never observe a partial image.
func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".icon-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// fit scales img down so neither edge exceeds size. Smaller images are
// returned unchanged.
func fit(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return img
	}

	dw, dh := size, size
	if w > h {
		dh = max(1, h*size/w)
	} else if h > w {
		dw = max(1, w*size/h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// placeholder is a flat tile tinted by the application key, so windows of
// different icon-less applications stay distinguishable.
func placeholder(appKey string, size int) image.Image {
	sum := sha256.Sum256([]byte(strings.ToLower(appKey)))
	fill := color.NRGBA{R: 64 + sum[0]/2, G: 64 + sum[1]/2, B: 64 + sum[2]/2, A: 255}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	return img
}
