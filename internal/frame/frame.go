// Package frame loads eye-camera frames into single-channel matrices.
package frame

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/tiff"
)

// Load reads an image file (PNG, JPEG or TIFF) and returns it as an 8-bit
// grayscale Mat. The caller owns the returned Mat.
func Load(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return FromImage(img)
}

// FromImage converts any Go image to an 8-bit grayscale Mat.
func FromImage(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(gray.Rect.Dy(), gray.Rect.Dx(), gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap frame data: %w", err)
	}
	return mat, nil
}
