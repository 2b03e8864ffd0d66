package purkinje

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"purkinje-tracer/pkg/geometry"
)

// eyeFrame builds the synthetic scene used across the locator tests: a
// uniform iris at 100, a dark pupil ellipse at (100,100) with semi-axes
// 60x50, the corneal glint P1 at (110,90) and the smaller but brighter lens
// glint P4 at (95,105), both inside the pupil.
func eyeFrame() gocv.Mat {
	m := grayScene(200, 200, 100)
	dark := color.RGBA{R: 30, G: 30, B: 30}
	gocv.Ellipse(&m, image.Pt(100, 100), image.Pt(60, 50), 0, 0, 360, dark, -1)
	drawDisk(&m, image.Pt(110, 90), 5, 220)
	drawDisk(&m, image.Pt(95, 105), 3, 250)
	return m
}

func testParams() Params {
	return Params{
		Crop:               geometry.RectInt{Width: 200, Height: 200},
		BlurRadius:         2,
		PupilThreshold:     80,
		SearchRadius:       70,
		PupilDownsample:    8,
		PupilFitDownsample: 1,
		P1Downsample:       2,
		P1Threshold:        150,
		P1Radius:           8,
		P1MinDiameter:      4,
		MaskErodeRadius:    4,
		P4Radius:           6,
		P4MinDiameter:      3,
		SentinelOffset:     100,
	}
}

func TestDetect(t *testing.T) {
	src := eyeFrame()
	defer src.Close()

	l := NewLocator(testParams())
	defer l.Close()

	res := l.Detect(src)

	require.True(t, res.PupilFound())
	assert.InDelta(t, 100, res.Pupil.Center.X, 1)
	assert.InDelta(t, 100, res.Pupil.Center.Y, 1)
	assert.InDelta(t, 120, res.Pupil.Width, 120*0.04)
	assert.InDelta(t, 100, res.Pupil.Height, 100*0.04)

	require.True(t, res.P1Found())
	assert.InDelta(t, 110, res.P1.Center.X, 1)
	assert.InDelta(t, 90, res.P1.Center.Y, 1)
	assert.GreaterOrEqual(t, res.P1.MinorAxis(), 4.0)

	require.True(t, res.P4Found())
	assert.InDelta(t, 95, res.P4Seed.X, 2)
	assert.InDelta(t, 105, res.P4Seed.Y, 2)
	assert.InDelta(t, 95, res.P4.Center.X, 1)
	assert.InDelta(t, 105, res.P4.Center.Y, 1)

	// The source frame is never written to, even though P1 is consumed from
	// the working buffer before the P4 search.
	assert.Equal(t, uint8(220), src.GetUCharAt(90, 110))
	assert.Equal(t, uint8(100), src.GetUCharAt(10, 10))
}

func TestDetectWithCropOffset(t *testing.T) {
	src := eyeFrame()
	defer src.Close()

	p := testParams().WithCrop(geometry.RectInt{X: 20, Y: 10, Width: 160, Height: 160})
	l := NewLocator(p)
	defer l.Close()

	res := l.Detect(src)

	require.True(t, res.PupilFound())
	assert.InDelta(t, 80, res.Pupil.Center.X, 1)
	assert.InDelta(t, 90, res.Pupil.Center.Y, 1)
	require.True(t, res.P1Found())
	assert.InDelta(t, 90, res.P1.Center.X, 1)
	assert.InDelta(t, 80, res.P1.Center.Y, 1)
	require.True(t, res.P4Found())
	assert.InDelta(t, 75, res.P4.Center.X, 1)
	assert.InDelta(t, 95, res.P4.Center.Y, 1)
}

func TestDetectRepeatable(t *testing.T) {
	src := eyeFrame()
	defer src.Close()

	l := NewLocator(testParams())
	defer l.Close()

	// Scratch buffer reuse must not leak state between frames.
	first := l.Detect(src)
	second := l.Detect(src)
	require.Equal(t, first, second)
}

func TestDetectFlatFrame(t *testing.T) {
	src := grayScene(200, 200, 100)
	defer src.Close()

	l := NewLocator(testParams())
	defer l.Close()

	res := l.Detect(src)
	assert.False(t, res.PupilFound())
	assert.False(t, res.P1Found())
	assert.False(t, res.P4Found())
	assert.Equal(t, geometry.Point2D{X: -100, Y: -100}, res.P1.Center)
	assert.Equal(t, geometry.Point2D{X: 300, Y: -100}, res.P4.Center)
}

func TestDetectEmptyFrame(t *testing.T) {
	l := NewLocator(testParams())
	defer l.Close()

	res := l.Detect(gocv.NewMat())
	assert.False(t, res.PupilFound())
	assert.False(t, res.P1Found())
	assert.False(t, res.P4Found())
	assert.Equal(t, geometry.Point2D{X: -100, Y: -100}, res.P1.Center)
	assert.Equal(t, geometry.Point2D{X: 300, Y: -100}, res.P4.Center)
}

func TestDetectP1GatesP4(t *testing.T) {
	src := eyeFrame()
	defer src.Close()

	// An unreachable P1 threshold invalidates P1; P4 must follow even though
	// its own glint is present and fittable.
	p := testParams()
	p.P1Threshold = 255
	l := NewLocator(p)
	defer l.Close()

	res := l.Detect(src)
	require.True(t, res.PupilFound())
	assert.False(t, res.P1Found())
	assert.False(t, res.P4Found())
	assert.Equal(t, geometry.Point2D{X: 300, Y: -100}, res.P4.Center)
}

func TestDetectMinDiameterBoundary(t *testing.T) {
	src := eyeFrame()
	defer src.Close()

	// Measure the fitted P1 minor axis with the gate effectively disabled.
	loose := testParams()
	loose.P1MinDiameter = 0.1
	ll := NewLocator(loose)
	defer ll.Close()
	minor := ll.Detect(src).P1.MinorAxis()
	require.Greater(t, minor, 0.1)

	// Exactly at the measured value the gate is inclusive.
	exact := testParams()
	exact.P1MinDiameter = minor
	le := NewLocator(exact)
	defer le.Close()
	assert.True(t, le.Detect(src).P1Found())

	// The smallest step above it rejects.
	above := testParams()
	above.P1MinDiameter = minor + 1e-9
	la := NewLocator(above)
	defer la.Close()
	assert.False(t, la.Detect(src).P1Found())
}
