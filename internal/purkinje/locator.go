// Package purkinje locates the pupil and the first and fourth Purkinje
// reflections (P1: corneal surface glint, P4: inner lens-surface glint) in
// single-channel eye frames, with sub-pixel precision.
//
// Each frame is processed independently: pupil boundary extraction seeds an
// elliptical P1 search on the blurred image, P1 is fitted and erased from the
// working buffer, and P4 is then sought inside the pupil hull on the
// post-erasure buffer. Absence of a feature is encoded in the Result, never
// as an error, so a real-time acquisition loop never stalls on a bad frame.
package purkinje

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"purkinje-tracer/internal/fit"
	"purkinje-tracer/internal/matutil"
	"purkinje-tracer/internal/pupil"
	"purkinje-tracer/pkg/geometry"
)

// Locator runs the full per-frame pipeline. It owns a fixed set of scratch
// buffers that are reused across frames; no content survives between calls,
// only allocated capacity.
//
// A Locator must not be used from more than one goroutine at a time: the P1
// erasure mutates the shared working buffer that the P4 search then reads.
// Independent Locator instances (e.g. a live one and a preview one) can run
// concurrently on different frames.
type Locator struct {
	params Params
	pupil  *pupil.Extractor

	// Scratch buffers, all window-sized. work is written by the P1 masking
	// step and mutated by the P1 erasure; p4buf is derived from the mutated
	// work; circ and hullMask are masks rebuilt per call; ds and bin serve
	// the coarse P1 estimate; roi is the float buffer for spot fitting.
	work     gocv.Mat
	p4buf    gocv.Mat
	circ     gocv.Mat
	hullMask gocv.Mat
	ds       gocv.Mat
	bin      gocv.Mat
	roi      gocv.Mat
}

// NewLocator creates a locator with the given parameters.
func NewLocator(p Params) *Locator {
	return &Locator{
		params:   p,
		pupil:    pupil.NewExtractor(p.pupilParams()),
		work:     gocv.NewMat(),
		p4buf:    gocv.NewMat(),
		circ:     gocv.NewMat(),
		hullMask: gocv.NewMat(),
		ds:       gocv.NewMat(),
		bin:      gocv.NewMat(),
		roi:      gocv.NewMat(),
	}
}

// Close releases all scratch buffers.
func (l *Locator) Close() {
	l.pupil.Close()
	matutil.CloseAll(&l.work, &l.p4buf, &l.circ, &l.hullMask, &l.ds, &l.bin, &l.roi)
}

// Params returns the detection parameters.
func (l *Locator) Params() Params { return l.params }

// Detect processes one frame. src is a single-channel 8-bit image covering at
// least the configured crop; it is only read. The result is always
// structurally valid: an empty frame or crop short-circuits to an all-invalid
// result.
func (l *Locator) Detect(src gocv.Mat) Result {
	res := Result{Crop: l.params.Crop}
	if src.Empty() {
		return l.invalidate(res)
	}
	crop := geometry.ClipRect(l.params.Crop, geometry.RectInt{Width: src.Cols(), Height: src.Rows()})
	res.Crop = crop
	if crop.Empty() {
		return l.invalidate(res)
	}

	cropped := src.Region(crop.ImageRect())
	defer cropped.Close()

	// Stage 1: pupil boundary.
	pr := l.pupil.Extract(cropped)
	res.PupilCoarse = pr.Coarse
	res.Pupil = pr.Spot
	res.Hull = pr.Hull

	win := pr.Window
	if win.Empty() {
		return l.invalidate(res)
	}
	off := geometry.Point2D{X: float64(win.X), Y: float64(win.Y)}

	// Stage 2: P1. Mask the blurred (not thresholded) window with a generous
	// ellipse around the fitted pupil center; P1 can sit near or outside the
	// pupil boundary, so the hull is deliberately not used here.
	blurWin := l.pupil.Blurred().Region(win.ImageRect())
	defer blurWin.Close()

	matutil.EnsureZeroed(&l.circ, win.Height, win.Width, gocv.MatTypeCV8U)
	white := color.RGBA{R: 255, G: 255, B: 255}
	pc := pr.Spot.Center.Sub(off).Round()
	gocv.Ellipse(&l.circ, pc, image.Pt(l.params.SearchRadius, l.params.SearchRadius),
		0, 0, 360, white, -1)
	gocv.BitwiseAnd(blurWin, l.circ, &l.work)

	p1Seed := l.coarseP1()
	res.P1Coarse = p1Seed.Add(off)

	p1 := Localize(&l.work, &l.roi, p1Seed.Round(), l.params.P1Radius, l.params.P1Threshold, true)
	p1.Center = p1.Center.Add(off)
	p1Valid := p1.MinorAxis() >= l.params.P1MinDiameter
	if !p1Valid {
		p1.Center = l.sentinelP1()
	}
	res.P1 = p1

	// Stage 3: P4, on the buffer with P1 erased. Inside the (optionally
	// eroded) pupil hull when one exists; over the whole window when the
	// pupil was not found. Widening the search beats failing outright.
	p4src := &l.work
	if len(pr.Hull) >= 3 {
		matutil.EnsureZeroed(&l.hullMask, win.Height, win.Width, gocv.MatTypeCV8U)
		local := make([]geometry.Point2D, len(pr.Hull))
		for i, p := range pr.Hull {
			local[i] = p.Sub(off)
		}
		pupil.FillHull(&l.hullMask, local)
		if er := l.params.MaskErodeRadius; er > 0 {
			kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*er+1, 2*er+1))
			defer kernel.Close()
			gocv.Erode(l.hullMask, &l.hullMask, kernel)
		}
		gocv.BitwiseAnd(l.work, l.hullMask, &l.p4buf)
		p4src = &l.p4buf
	}

	// P4 is a bright spot: seed at the intensity maximum.
	_, _, _, maxLoc := gocv.MinMaxLoc(*p4src)
	res.P4Seed = geometry.Point2D{X: float64(maxLoc.X), Y: float64(maxLoc.Y)}.Add(off)

	p4 := Localize(p4src, &l.roi, maxLoc, l.params.P4Radius, l.params.PupilThreshold, false)
	p4.Center = p4.Center.Add(off)
	// P4 depends on P1 having been correctly subtracted, so P1 validity gates
	// P4 regardless of the fit quality.
	if !p1Valid || p4.MinorAxis() < l.params.P4MinDiameter {
		p4.Center = l.sentinelP4(res.Crop)
	}
	res.P4 = p4

	return res
}

// coarseP1 estimates the P1 position from the masked working buffer: shrink,
// threshold at the P1 level, and take the binary centroid. Window-local.
func (l *Locator) coarseP1() geometry.Point2D {
	f := l.params.P1Downsample
	if f < 1 {
		f = 1
	}
	cols := l.work.Cols() / f
	rows := l.work.Rows() / f
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	gocv.Resize(l.work, &l.ds, image.Pt(cols, rows), 0, 0, gocv.InterpolationNearestNeighbor)
	gocv.Threshold(l.ds, &l.bin, float32(l.params.P1Threshold), 255, gocv.ThresholdBinary)
	return fit.Moments(l.bin, 1, true).Center.Scale(float64(f))
}

// invalidate marks P1 and P4 as not found on a result that short-circuited
// before their search stages ran.
func (l *Locator) invalidate(res Result) Result {
	res.P1.Center = l.sentinelP1()
	res.P4.Center = l.sentinelP4(res.Crop)
	return res
}

func (l *Locator) sentinelP1() geometry.Point2D {
	return geometry.Point2D{X: -l.params.SentinelOffset, Y: -l.params.SentinelOffset}
}

func (l *Locator) sentinelP4(crop geometry.RectInt) geometry.Point2D {
	return geometry.Point2D{X: float64(crop.Width) + l.params.SentinelOffset, Y: -l.params.SentinelOffset}
}
