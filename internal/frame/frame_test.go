package frame

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(10*y + x)})
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	m, err := FromImage(testImage())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 6, m.Rows())
	assert.Equal(t, 8, m.Cols())
	assert.Equal(t, uint8(0), m.GetUCharAt(0, 0))
	assert.Equal(t, uint8(53), m.GetUCharAt(5, 3))
}

func TestFromImageRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	m, err := FromImage(img)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, uint8(200), m.GetUCharAt(2, 2))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testImage()))
	require.NoError(t, f.Close())

	m, err := Load(path)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 6, m.Rows())
	assert.Equal(t, uint8(53), m.GetUCharAt(5, 3))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
