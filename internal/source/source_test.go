package source

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 30, 20)
	writePNG(t, filepath.Join(dir, "a.PNG"), 10, 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	src, err := Open(dir)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.PageCount())
	w, h, err := src.PageSize(0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 5.0, h)

	img, err := src.Render(1, 150)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())

	_, err = src.Render(2, 150)
	assert.ErrorIs(t, err, ErrPageRange)
}

func TestHeader(t *testing.T) {
	file := filepath.Join(t.TempDir(), "title.png")
	writePNG(t, file, 64, 16)

	img, err := Header(file, 0, 72)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	_, err = Header(file, 3, 72)
	assert.ErrorIs(t, err, ErrPageRange)

	_, err = Header(filepath.Join(t.TempDir(), "missing.png"), 0, 72)
	assert.Error(t, err)
}
