package purkinje

import (
	"purkinje-tracer/internal/fit"
	"purkinje-tracer/pkg/geometry"
)

// Result aggregates one frame's detections. All coordinates are relative to
// the crop origin; the caller adds the crop offset for full-frame positions.
//
// "Not found" is encoded in-band, never as an error: a missing pupil has a
// zero-size Spot, and a missing P1 or P4 keeps its fitted size but has its
// center moved to a sentinel position outside the crop: P1 to
// (-SentinelOffset, -SentinelOffset), P4 to (cropWidth+SentinelOffset,
// -SentinelOffset) so the two are distinguishable at a glance. Consumers can
// therefore filter on "center inside the crop" without a separate flag; the
// Found predicates below implement exactly that.
type Result struct {
	Crop geometry.RectInt `json:"crop"`

	PupilCoarse geometry.Point2D   `json:"pupil_coarse"`
	Pupil       fit.Spot           `json:"pupil"`
	Hull        []geometry.Point2D `json:"hull,omitempty"`

	P1Coarse geometry.Point2D `json:"p1_coarse"`
	P1       fit.Spot         `json:"p1"`

	P4Seed geometry.Point2D `json:"p4_seed"`
	P4     fit.Spot         `json:"p4"`
}

// PupilFound reports whether the pupil fit produced a real boundary.
func (r Result) PupilFound() bool {
	return !r.Pupil.Empty() && r.Pupil.MinorAxis() > 0
}

// P1Found reports whether P1 passed its validity gate.
func (r Result) P1Found() bool {
	return r.inCrop(r.P1.Center)
}

// P4Found reports whether P4 passed its validity gate (which includes P1
// having been found).
func (r Result) P4Found() bool {
	return r.inCrop(r.P4.Center)
}

func (r Result) inCrop(p geometry.Point2D) bool {
	return p.X >= 0 && p.Y >= 0 &&
		p.X <= float64(r.Crop.Width) && p.Y <= float64(r.Crop.Height)
}
