package iconstore

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xswitcher/internal/platform"
)

type countingSource struct {
	img   image.Image
	err   error
	calls int
}

func (c *countingSource) Icon() (image.Image, error) {
	c.calls++
	return c.img, c.err
}

func solid(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func newStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := New(dir, Options{Size: 32})
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, ref string) image.Image {
	t.Helper()
	f, err := os.Open(RefPath(ref))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestKey_IsHexSHA256OfLowercasedKey(t *testing.T) {
	k := Key("Firefox")
	assert.Len(t, k, 64)
	assert.Equal(t, Key("firefox"), k)
	assert.NotEqual(t, Key("chrome"), k)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Key(""))
}

func TestResolve_IsIdempotent(t *testing.T) {
	s := newStore(t, t.TempDir())
	src := &countingSource{img: solid(16, 16)}

	ref1, err := s.Resolve("firefox", src)
	require.NoError(t, err)
	info1, err := os.Stat(RefPath(ref1))
	require.NoError(t, err)

	// Backdate the file so an accidental rewrite would change mtime.
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(RefPath(ref1), old, old))

	ref2, err := s.Resolve("firefox", src)
	require.NoError(t, err)
	info2, err := os.Stat(RefPath(ref2))
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	assert.Equal(t, 1, src.calls, "icon source should be read once")
	assert.True(t, info2.ModTime().Equal(old), "second resolve must not touch the file")
	assert.Equal(t, info1.Size(), info2.Size())
}

func TestResolve_CaseInsensitiveKey(t *testing.T) {
	s := newStore(t, t.TempDir())
	src := &countingSource{img: solid(8, 8)}

	upper, err := s.Resolve("Firefox", src)
	require.NoError(t, err)
	lower, err := s.Resolve("firefox", src)
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
	assert.Equal(t, 1, src.calls)
}

func TestResolve_RefPointsInsideCacheDir(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)

	ref, err := s.Resolve("../../etc/passwd", &countingSource{img: solid(4, 4)})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, RefPrefix))
	path := RefPath(ref)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, Key("../../etc/passwd"), filepath.Base(path))
}

func TestResolve_CreatesNestedCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "icons")
	s := newStore(t, dir)

	_, err := s.Resolve("xterm", &countingSource{img: solid(4, 4)})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolve_DirectoryCreationFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	s := newStore(t, filepath.Join(blocker, "icons"))

	_, err := s.Resolve("xterm", &countingSource{img: solid(4, 4)})
	assert.Error(t, err)
}

func TestResolve_SourceErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)
	boom := errors.New("bad pixmap")

	_, err := s.Resolve("xterm", &countingSource{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(s.Path("xterm"))
	assert.True(t, os.IsNotExist(statErr), "failed resolve must not leave a file")
}

func TestResolve_PlaceholderWhenNoIcon(t *testing.T) {
	s := newStore(t, t.TempDir())

	ref, err := s.Resolve("iconless", &countingSource{err: platform.ErrNoIcon})
	require.NoError(t, err)
	img := decode(t, ref)
	assert.Equal(t, 32, img.Bounds().Dx())

	ref2, err := s.Resolve("also-iconless", nil)
	require.NoError(t, err)
	assert.NotEqual(t, ref, ref2)
}

func TestResolve_ScalesLargeIcons(t *testing.T) {
	s := newStore(t, t.TempDir())

	ref, err := s.Resolve("big", &countingSource{img: solid(256, 128)})
	require.NoError(t, err)

	img := decode(t, ref)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestResolve_KeepsSmallIcons(t *testing.T) {
	s := newStore(t, t.TempDir())

	ref, err := s.Resolve("small", &countingSource{img: solid(16, 16)})
	require.NoError(t, err)
	assert.Equal(t, 16, decode(t, ref).Bounds().Dx())
}

func TestResolve_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)

	_, err := s.Resolve("firefox", &countingSource{img: solid(4, 4)})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Key("firefox"), entries[0].Name())
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("  ", Options{})
	assert.Error(t, err)
}
