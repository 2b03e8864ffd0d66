package fit

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"purkinje-tracer/pkg/geometry"
)

// m00Epsilon keeps the centroid division defined on all-zero regions, which
// then fit to a zero-size Spot at the origin instead of NaN.
const m00Epsilon = 1e-10

// Moments fits a region with an ellipse derived from its image moments.
//
// factor is an integer downsampling factor (>= 1): the region is shrunk by
// nearest-neighbor resampling before the moments are computed, and the fitted
// centroid and axes are scaled back up. This trades precision for speed and is
// used for coarse centroid estimation on full frames. binary treats every
// non-zero pixel as weight 1; otherwise pixel intensities weight the moments.
//
// The centroid comes from the first moments, the orientation from the central
// second moments, and the axis extents from the eigenvalues of the covariance
// matrix. A degenerate (all-zero) region yields a zero Spot, not an error;
// callers detect it via minimum-diameter checks or Spot.Empty.
func Moments(region gocv.Mat, factor int, binary bool) Spot {
	if region.Empty() {
		return Spot{}
	}
	if factor < 1 {
		factor = 1
	}

	src := region
	if factor > 1 {
		cols := region.Cols() / factor
		rows := region.Rows() / factor
		if cols < 1 {
			cols = 1
		}
		if rows < 1 {
			rows = 1
		}
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(region, &small, image.Pt(cols, rows), 0, 0, gocv.InterpolationNearestNeighbor)
		src = small
	}

	m := gocv.Moments(src, binary)
	f := float64(factor)
	m00 := m["m00"] + m00Epsilon

	cx := m["m10"] / m00 * f
	cy := m["m01"] / m00 * f

	// Normalized central second moments (per unit mass)
	mu20 := m["mu20"] / m00
	mu02 := m["mu02"] / m00
	mu11 := m["mu11"] / m00

	angle := 0.5*math.Atan2(2*mu11, mu20-mu02)*180/math.Pi + 90

	// Eigenvalues of the covariance matrix give the squared semi-axes / 2.
	r := math.Sqrt(mu11*mu11 + (mu20-mu02)*(mu20-mu02))
	sum := mu20 + mu02
	a := math.Sqrt(2 * (sum + r))
	b2 := 2 * (sum - r)
	if b2 < 0 {
		b2 = 0 // numeric noise on near-degenerate regions
	}
	b := math.Sqrt(b2)

	return Spot{
		Center: geometry.Point2D{X: cx, Y: cy},
		Width:  2 * a * f,
		Height: 2 * b * f,
		Angle:  angle,
		Mass:   m["m00"],
	}
}
