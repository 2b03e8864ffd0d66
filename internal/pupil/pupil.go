// Package pupil extracts the pupil boundary from a single-channel eye frame.
//
// The extraction is coarse-to-fine: a downsampled binary centroid of the
// dark-pixel mask seeds a local search window, a Laplacian edge map inside a
// circular mask yields boundary points, and the convex hull of those points is
// fitted with an ellipse.
package pupil

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"purkinje-tracer/internal/fit"
	"purkinje-tracer/internal/matutil"
	"purkinje-tracer/pkg/geometry"
)

// FitMethod selects the pupil fitting strategy applied to the boundary hull.
type FitMethod int

const (
	// FitMoments rasterizes the filled hull and fits it by image moments.
	FitMoments FitMethod = iota
	// FitEllipse fits the hull vertices directly by least squares. Needs at
	// least 5 hull points, else the fit degenerates to a zero-size result.
	FitEllipse
)

func (m FitMethod) String() string {
	switch m {
	case FitEllipse:
		return "ellipse"
	default:
		return "moments"
	}
}

// Params holds pupil extraction parameters. All values are caller-validated;
// the extractor never mutates them.
type Params struct {
	BlurRadius    int     // Gaussian blur radius; kernel size is 2r+1
	Threshold     float64 // pixels darker than this are pupil candidates
	SearchRadius  int     // half-side of the search window around the coarse center
	Downsample    int     // downsampling factor for the coarse binary centroid
	FitDownsample int     // independent factor for the moments-variant hull fit
	Method        FitMethod
}

// Result is the outcome of one extraction, in crop-relative coordinates.
type Result struct {
	Coarse geometry.Point2D   // downsampled binary centroid of the dark mask
	Window geometry.RectInt   // clipped search window; empty if the mask was empty near an edge
	Hull   []geometry.Point2D // convex hull of the boundary edge points
	Spot   fit.Spot           // fitted pupil ellipse; zero-size when not found
}

// Extractor runs pupil extraction on successive frames, reusing its scratch
// buffers between calls. It is not safe for concurrent use; one extraction
// must finish before the next starts.
//
// The blurred and thresholded intermediates stay valid until the next Extract
// call and are exposed for downstream stages that search near the pupil.
type Extractor struct {
	params Params

	// Scratch buffers. blur and mask span the whole crop; the rest span the
	// search window. Each is fully overwritten before being read on every
	// call.
	blur     gocv.Mat // written by step 1, read by steps 2-3 and Blurred
	mask     gocv.Mat // written by step 2, read by steps 3 and 5
	circ     gocv.Mat // circular window mask, rebuilt per call
	masked   gocv.Mat // mask AND circ
	edge16   gocv.Mat // signed Laplacian response
	edge     gocv.Mat // absolute edge magnitude
	hullMask gocv.Mat // filled hull raster for the moments fit
}

// NewExtractor creates an extractor with the given parameters.
func NewExtractor(p Params) *Extractor {
	return &Extractor{
		params:   p,
		blur:     gocv.NewMat(),
		mask:     gocv.NewMat(),
		circ:     gocv.NewMat(),
		masked:   gocv.NewMat(),
		edge16:   gocv.NewMat(),
		edge:     gocv.NewMat(),
		hullMask: gocv.NewMat(),
	}
}

// Close releases the scratch buffers.
func (e *Extractor) Close() {
	matutil.CloseAll(&e.blur, &e.mask, &e.circ, &e.masked, &e.edge16, &e.edge, &e.hullMask)
}

// Params returns the extraction parameters.
func (e *Extractor) Params() Params { return e.params }

// Blurred returns the blurred crop from the most recent Extract call. Valid
// until the next call.
func (e *Extractor) Blurred() gocv.Mat { return e.blur }

// Mask returns the thresholded dark-pixel mask from the most recent Extract
// call. Valid until the next call.
func (e *Extractor) Mask() gocv.Mat { return e.mask }

// Extract locates the pupil boundary in src, a single-channel 8-bit cropped
// frame. src is only read. An empty frame or an off-image search window yields
// a degenerate Result rather than an error.
func (e *Extractor) Extract(src gocv.Mat) Result {
	var res Result
	if src.Empty() {
		return res
	}

	// 1. Blur to suppress sensor noise before thresholding and edges.
	k := 2*e.params.BlurRadius + 1
	gocv.GaussianBlur(src, &e.blur, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	// 2. Inverted threshold: the pupil is the dark thing.
	gocv.Threshold(e.blur, &e.mask, float32(e.params.Threshold), 255, gocv.ThresholdBinaryInv)

	// 3. Coarse center from the downsampled binary centroid. Robust to noise
	// and cheap even on full frames.
	res.Coarse = fit.Moments(e.mask, e.params.Downsample, true).Center

	// 4. Search window around the coarse center, clipped to the crop. All
	// coordinates below are window-local until translated back.
	r := e.params.SearchRadius
	seed := res.Coarse.Round()
	win := geometry.ClipRect(
		geometry.RectInt{X: seed.X - r, Y: seed.Y - r, Width: 2 * r, Height: 2 * r},
		geometry.RectInt{Width: src.Cols(), Height: src.Rows()},
	)
	res.Window = win
	if win.Empty() {
		return res
	}

	maskWin := e.mask.Region(win.ImageRect())
	defer maskWin.Close()

	// 5. Circular mask eliminates dark structures near the window edge (lash
	// shadows, eyelid folds) before edge extraction.
	matutil.EnsureZeroed(&e.circ, win.Height, win.Width, gocv.MatTypeCV8U)
	white := color.RGBA{R: 255, G: 255, B: 255}
	gocv.Circle(&e.circ, image.Pt(seed.X-win.X, seed.Y-win.Y), r, white, -1)
	gocv.BitwiseAnd(maskWin, e.circ, &e.masked)

	// Laplacian magnitude of the masked binary image leaves a thin band of
	// non-zero pixels along the pupil boundary.
	gocv.Laplacian(e.masked, &e.edge16, gocv.MatTypeCV16S, 3, 1, 0, gocv.BorderDefault)
	gocv.ConvertScaleAbs(e.edge16, &e.edge, 1, 0)

	// 6. Collect edge points and take their convex hull. Holes punched into
	// the mask by corneal reflections produce interior edge points, which the
	// hull discards.
	var pts []geometry.Point2D
	for y := 0; y < e.edge.Rows(); y++ {
		for x := 0; x < e.edge.Cols(); x++ {
			if e.edge.GetUCharAt(y, x) != 0 {
				pts = append(pts, geometry.Point2D{X: float64(x), Y: float64(y)})
			}
		}
	}
	hull := geometry.ConvexHull(pts)

	// 7. Fit the hull with the selected strategy.
	var s fit.Spot
	switch e.params.Method {
	case FitEllipse:
		s = fit.Ellipse(hull)
	default:
		s = e.fitHullMoments(hull, win)
	}

	// 8. Back to crop-relative coordinates.
	off := geometry.Point2D{X: float64(win.X), Y: float64(win.Y)}
	s.Center = s.Center.Add(off)
	res.Spot = s
	res.Hull = make([]geometry.Point2D, len(hull))
	for i, p := range hull {
		res.Hull[i] = p.Add(off)
	}
	return res
}

// fitHullMoments rasterizes the filled hull and fits the region by binary
// moments, with the independent fit downsampling factor.
func (e *Extractor) fitHullMoments(hull []geometry.Point2D, win geometry.RectInt) fit.Spot {
	matutil.EnsureZeroed(&e.hullMask, win.Height, win.Width, gocv.MatTypeCV8U)
	if len(hull) >= 3 {
		FillHull(&e.hullMask, hull)
	}
	return fit.Moments(e.hullMask, e.params.FitDownsample, true)
}

// FillHull rasterizes a hull polygon as a filled white region into dst.
// Points are rounded to pixel positions.
func FillHull(dst *gocv.Mat, hull []geometry.Point2D) {
	ipts := make([]image.Point, len(hull))
	for i, p := range hull {
		ipts[i] = p.Round()
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{ipts})
	defer pv.Close()
	gocv.FillPoly(dst, pv, color.RGBA{R: 255, G: 255, B: 255})
}
