// Package matutil provides small helpers for managing reusable gocv scratch
// matrices.
package matutil

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// EnsureZeroed makes sure *m is an allocated matrix of the given shape and
// type, reallocating if the shape changed, and clears it to zero. Scratch
// buffers that are drawn into incrementally (masks, working images) must be
// cleared every call so no content leaks between frames.
func EnsureZeroed(m *gocv.Mat, rows, cols int, mt gocv.MatType) {
	if m.Empty() || m.Rows() != rows || m.Cols() != cols || m.Type() != mt {
		m.Close()
		*m = gocv.NewMatWithSize(rows, cols, mt)
		return // NewMatWithSize zero-initializes
	}
	gocv.Rectangle(m, image.Rect(0, 0, cols, rows), color.RGBA{}, -1)
}

// CloseAll closes every matrix in the list. Convenience for scratch-buffer
// owners with many mats.
func CloseAll(mats ...*gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}
