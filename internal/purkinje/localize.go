package purkinje

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"purkinje-tracer/internal/fit"
	"purkinje-tracer/pkg/geometry"
)

// Localize fits a single bright spot near center in the working buffer. It is
// the one primitive behind both reflections; only the threshold, radius and
// consume flag differ between P1 and P4.
//
// A square region of the given radius around center is clipped to the buffer
// (an off-buffer region yields a zero Spot), converted to float, lowered by
// the background level with negative values clipped to zero, and fitted by
// intensity-weighted moments. The returned center is in buffer coordinates.
//
// If consume is true the region is erased (zeroed) from work itself after the
// float copy is taken, so a later search over the same buffer cannot
// re-detect this spot. work is the only mutated argument; scratch is a
// caller-owned float buffer reused across calls.
func Localize(work *gocv.Mat, scratch *gocv.Mat, center image.Point, radius int, background float64, consume bool) fit.Spot {
	bounds := geometry.RectInt{Width: work.Cols(), Height: work.Rows()}
	roi := geometry.ClipRect(
		geometry.RectInt{X: center.X - radius, Y: center.Y - radius, Width: 2 * radius, Height: 2 * radius},
		bounds,
	)
	if roi.Empty() {
		return fit.Spot{}
	}

	region := work.Region(roi.ImageRect())
	defer region.Close()

	region.ConvertTo(scratch, gocv.MatTypeCV32F)
	scratch.SubtractFloat(float32(background))
	// Everything at or below background goes to zero, isolating the spot.
	gocv.Threshold(*scratch, scratch, 0, 0, gocv.ThresholdToZero)

	if consume {
		// region is a view into work: filling it black erases the spot from
		// the shared buffer.
		gocv.Rectangle(&region, image.Rect(0, 0, roi.Width, roi.Height), color.RGBA{}, -1)
	}

	s := fit.Moments(*scratch, 1, false)
	s.Center = s.Center.Add(geometry.Point2D{X: float64(roi.X), Y: float64(roi.Y)})
	return s
}
