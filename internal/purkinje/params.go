package purkinje

import (
	"purkinje-tracer/internal/pupil"
	"purkinje-tracer/pkg/geometry"
)

// Params holds the full per-frame detection configuration. The locator never
// mutates it; invalid values (zero radii, zero factors) are caller contract
// violations beyond the built-in divide-by-zero and empty-region guards.
type Params struct {
	// Crop is the region of the full frame the pipeline operates on. All
	// output coordinates are relative to its origin.
	Crop geometry.RectInt

	// Pupil stage
	BlurRadius         int     // Gaussian blur radius (kernel 2r+1)
	PupilThreshold     float64 // darker-than-this is pupil; also the P4 background level
	SearchRadius       int     // half-side of the pupil search window, and the P1 mask radius
	PupilDownsample    int     // factor for the coarse pupil centroid
	PupilFitDownsample int     // factor for the moments-variant hull fit
	PupilFit           pupil.FitMethod

	// P1 (corneal reflection) stage
	P1Downsample  int     // factor for the coarse P1 centroid
	P1Threshold   float64 // brighter-than-this is glint; also the P1 background level
	P1Radius      int     // half-side of the P1 fitting region
	P1MinDiameter float64 // minimum acceptable P1 minor extent

	// P4 (lens reflection) stage
	MaskErodeRadius int     // shrinks the pupil hull mask away from the boundary; 0 disables
	P4Radius        int     // half-side of the P4 fitting region
	P4MinDiameter   float64 // minimum acceptable P4 minor extent

	// SentinelOffset places "not found" centers outside the crop. See
	// Result for the convention.
	SentinelOffset float64
}

// DefaultParams returns detection parameters tuned for a ~400x300 IR eye crop
// with the pupil filling roughly a quarter of it. Thresholds always need
// per-setup tuning; radii and factors usually transfer.
func DefaultParams() Params {
	return Params{
		BlurRadius:     2,   // 5x5 kernel; enough for sensor noise at video rates
		PupilThreshold: 80,  // pupil is the darkest large structure under IR
		SearchRadius:   100, // must cover the pupil plus some eye movement
		// Coarse estimates only seed local searches, so aggressive
		// downsampling is safe and keeps the full-frame pass cheap.
		PupilDownsample:    8,
		PupilFitDownsample: 1,
		PupilFit:           pupil.FitMoments,

		P1Downsample:  2,
		P1Threshold:   160, // P1 is a saturated-ish glint on most IR rigs
		P1Radius:      12,
		P1MinDiameter: 3,

		MaskErodeRadius: 5, // keeps boundary artifacts out of the P4 search
		P4Radius:        8,
		P4MinDiameter:   2, // P4 is small and dim; gate loosely

		SentinelOffset: 100,
	}
}

// WithCrop returns a copy of params with the crop rectangle set.
func (p Params) WithCrop(crop geometry.RectInt) Params {
	p.Crop = crop
	return p
}

// WithThresholds returns a copy of params with the pupil and P1 intensity
// thresholds set.
func (p Params) WithThresholds(pupilThreshold, p1Threshold float64) Params {
	p.PupilThreshold = pupilThreshold
	p.P1Threshold = p1Threshold
	return p
}

// WithSearchRadius returns a copy of params with the search radius set.
func (p Params) WithSearchRadius(r int) Params {
	p.SearchRadius = r
	return p
}

// WithPupilFit returns a copy of params with the pupil fitting strategy set.
func (p Params) WithPupilFit(m pupil.FitMethod) Params {
	p.PupilFit = m
	return p
}

// pupilParams projects the pupil-stage subset.
func (p Params) pupilParams() pupil.Params {
	return pupil.Params{
		BlurRadius:    p.BlurRadius,
		Threshold:     p.PupilThreshold,
		SearchRadius:  p.SearchRadius,
		Downsample:    p.PupilDownsample,
		FitDownsample: p.PupilFitDownsample,
		Method:        p.PupilFit,
	}
}
