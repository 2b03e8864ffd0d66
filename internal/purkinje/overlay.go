package purkinje

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"purkinje-tracer/internal/fit"
	"purkinje-tracer/pkg/geometry"
)

// Overlay colors. gocv converts RGBA to BGR internally.
var (
	colorWindow = color.RGBA{R: 120, G: 120, B: 120}
	colorSearch = color.RGBA{B: 255}
	colorPupil  = color.RGBA{G: 255}
	colorP1     = color.RGBA{R: 255}
	colorP4     = color.RGBA{R: 255, G: 255}
)

// Overlay renders a detection result onto a BGR copy of the cropped frame for
// interactive tuning: search window, search circle, pupil hull and ellipse,
// and P1/P4 markers. It is presentation-only and has no effect on detection;
// production use simply never calls it.
//
// src is the same full frame that was passed to Detect. The returned Mat is
// owned by the caller.
func Overlay(src gocv.Mat, res Result, p Params) gocv.Mat {
	out := gocv.NewMat()
	if src.Empty() {
		return out
	}
	crop := geometry.ClipRect(p.Crop, geometry.RectInt{Width: src.Cols(), Height: src.Rows()})
	if crop.Empty() {
		return out
	}
	cropped := src.Region(crop.ImageRect())
	defer cropped.Close()
	gocv.CvtColor(cropped, &out, gocv.ColorGrayToBGR)

	// Pupil search window and circular mask extent.
	if !res.Pupil.Empty() {
		win := windowAround(res.PupilCoarse, p.SearchRadius, crop)
		gocv.Rectangle(&out, win.ImageRect(), colorWindow, 1)
		gocv.Circle(&out, res.PupilCoarse.Round(), p.SearchRadius, colorSearch, 1)
	}

	// Hull polygon.
	if len(res.Hull) >= 2 {
		ipts := make([]image.Point, len(res.Hull))
		for i, pt := range res.Hull {
			ipts[i] = pt.Round()
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{ipts})
		defer pv.Close()
		gocv.Polylines(&out, pv, true, colorPupil, 1)
	}

	if res.PupilFound() {
		drawSpot(&out, res.Pupil, colorPupil)
	}
	if res.P1Found() {
		drawSpot(&out, res.P1, colorP1)
		drawCross(&out, res.P1.Center.Round(), 6, colorP1)
	}
	if res.P4Found() {
		drawSpot(&out, res.P4, colorP4)
		drawCross(&out, res.P4.Center.Round(), 6, colorP4)
	}
	return out
}

// drawSpot draws the Spot's equivalent ellipse. The Spot angle convention
// carries a +90 offset relative to the drawing convention.
func drawSpot(dst *gocv.Mat, s fit.Spot, c color.RGBA) {
	axes := image.Pt(int(s.Width/2+0.5), int(s.Height/2+0.5))
	if axes.X < 1 || axes.Y < 1 {
		return
	}
	gocv.Ellipse(dst, s.Center.Round(), axes, s.Angle-90, 0, 360, c, 1)
}

func drawCross(dst *gocv.Mat, at image.Point, arm int, c color.RGBA) {
	gocv.Line(dst, image.Pt(at.X-arm, at.Y), image.Pt(at.X+arm, at.Y), c, 1)
	gocv.Line(dst, image.Pt(at.X, at.Y-arm), image.Pt(at.X, at.Y+arm), c, 1)
}

func windowAround(center geometry.Point2D, radius int, crop geometry.RectInt) geometry.RectInt {
	c := center.Round()
	return geometry.ClipRect(
		geometry.RectInt{X: c.X - radius, Y: c.Y - radius, Width: 2 * radius, Height: 2 * radius},
		geometry.RectInt{Width: crop.Width, Height: crop.Height},
	)
}
