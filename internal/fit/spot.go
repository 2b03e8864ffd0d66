// Package fit provides shape fitting for eye-image features: moment-based
// blob fitting and direct least-squares ellipse fitting. Both produce a Spot.
package fit

import (
	"fmt"

	"purkinje-tracer/pkg/geometry"
)

// Spot is a fitted blob: a rotated-rectangle-equivalent ellipse plus the total
// intensity mass that contributed to the fit.
//
// Angle is in degrees with a fixed +90 convention offset, i.e. an ellipse whose
// major axis lies along the image x-axis reports Angle = 90. Width is always
// the major-axis extent and Height the minor-axis extent.
type Spot struct {
	Center geometry.Point2D `json:"center"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Angle  float64          `json:"angle"`
	Mass   float64          `json:"mass"`
}

// MinorAxis returns the smaller of the two extents. Minimum-diameter validity
// checks gate on this value.
func (s Spot) MinorAxis() float64 {
	if s.Width < s.Height {
		return s.Width
	}
	return s.Height
}

// MajorAxis returns the larger of the two extents.
func (s Spot) MajorAxis() float64 {
	if s.Width > s.Height {
		return s.Width
	}
	return s.Height
}

// Empty reports whether the fit degenerated (no mass contributed).
func (s Spot) Empty() bool {
	return s.Mass == 0
}

func (s Spot) String() string {
	return fmt.Sprintf("(%.2f,%.2f) %.1fx%.1f @%.1f°", s.Center.X, s.Center.Y, s.Width, s.Height, s.Angle)
}
