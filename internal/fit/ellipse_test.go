package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purkinje-tracer/pkg/geometry"
)

// ellipsePoints samples n points on the boundary of an ellipse with the given
// center, semi-axes and rotation (degrees).
func ellipsePoints(cx, cy, semiA, semiB, angleDeg float64, n int) []geometry.Point2D {
	phi := angleDeg * math.Pi / 180
	pts := make([]geometry.Point2D, n)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		x := semiA * math.Cos(t)
		y := semiB * math.Sin(t)
		pts[i] = geometry.Point2D{
			X: cx + x*math.Cos(phi) - y*math.Sin(phi),
			Y: cy + x*math.Sin(phi) + y*math.Cos(phi),
		}
	}
	return pts
}

func TestEllipseRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		cx, cy, a, b, angle float64
		n                   int
	}{
		{"axis aligned", 50.25, 42.75, 20, 12, 0, 32},
		{"rotated", 100.5, 80.5, 35, 15, 25, 32},
		{"steep rotation", 60, 60, 18, 9, 115, 24},
		{"near circle", 30, 30, 10, 9.5, 0, 16},
		{"minimal points", 40, 40, 15, 8, 40, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Ellipse(ellipsePoints(tc.cx, tc.cy, tc.a, tc.b, tc.angle, tc.n))
			require.False(t, s.Empty())
			assert.InDelta(t, tc.cx, s.Center.X, 0.1)
			assert.InDelta(t, tc.cy, s.Center.Y, 0.1)
			assert.InDelta(t, 2*tc.a, s.Width, 2*tc.a*0.01)
			assert.InDelta(t, 2*tc.b, s.Height, 2*tc.b*0.01)
			if tc.a/tc.b > 1.05 { // angle is meaningless on circles
				assert.Less(t, angleError(s.Angle, tc.angle+90), 1.0)
			}
		})
	}
}

func TestEllipseCircle(t *testing.T) {
	t.Parallel()

	s := Ellipse(ellipsePoints(25, 35, 12, 12, 0, 20))
	require.False(t, s.Empty())
	assert.InDelta(t, 25, s.Center.X, 0.1)
	assert.InDelta(t, 35, s.Center.Y, 0.1)
	assert.InDelta(t, 24, s.Width, 0.5)
	assert.InDelta(t, 24, s.Height, 0.5)
}

func TestEllipseDegenerate(t *testing.T) {
	t.Parallel()

	t.Run("too few points", func(t *testing.T) {
		pts := ellipsePoints(10, 10, 5, 3, 0, 4)
		s := Ellipse(pts)
		assert.True(t, s.Empty())
		assert.Zero(t, s.Width)
		assert.Zero(t, s.Angle)
	})

	t.Run("nil input", func(t *testing.T) {
		assert.True(t, Ellipse(nil).Empty())
	})

	t.Run("collinear points", func(t *testing.T) {
		pts := []geometry.Point2D{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
		s := Ellipse(pts)
		assert.True(t, s.Empty())
	})
}
