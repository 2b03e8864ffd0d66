package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"purkinje-tracer/pkg/geometry"
)

// Ellipse fits an ellipse to a point cloud by direct least squares, using the
// numerically stable Halir-Flachs partitioning of the Fitzgibbon method: the
// quadratic and linear halves of the conic are separated so the problem
// reduces to a 3x3 eigendecomposition with the ellipse constraint built in.
//
// At least 5 points are required; fewer points, collinear inputs, or a fit
// that is not an ellipse all yield a zero Spot (an explicit "not found"
// signal, not an error). The Spot's Mass is the fitted ellipse area.
func Ellipse(points []geometry.Point2D) Spot {
	if len(points) < 5 {
		return Spot{}
	}
	n := len(points)

	// Center the data; the conic coefficients are translated back at the end.
	mean := geometry.Centroid(points)

	d1 := mat.NewDense(n, 3, nil) // quadratic part: x^2, xy, y^2
	d2 := mat.NewDense(n, 3, nil) // linear part: x, y, 1
	for i, p := range points {
		x := p.X - mean.X
		y := p.Y - mean.Y
		d1.SetRow(i, []float64{x * x, x * y, y * y})
		d2.SetRow(i, []float64{x, y, 1})
	}

	var s1, s2, s3 mat.Dense
	s1.Mul(d1.T(), d1)
	s2.Mul(d1.T(), d2)
	s3.Mul(d2.T(), d2)

	var s3inv mat.Dense
	if err := s3inv.Inverse(&s3); err != nil {
		return Spot{} // collinear or otherwise degenerate input
	}

	var t mat.Dense
	t.Mul(&s3inv, s2.T())
	t.Scale(-1, &t)

	var reduced mat.Dense
	reduced.Mul(&s2, &t)
	var msum mat.Dense
	msum.Add(&s1, &reduced)

	// Premultiply by the inverse of the constraint matrix
	// C1 = [[0,0,2],[0,-1,0],[2,0,0]].
	m := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		m.Set(0, j, msum.At(2, j)/2)
		m.Set(1, j, -msum.At(1, j))
		m.Set(2, j, msum.At(0, j)/2)
	}

	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenRight) {
		return Spot{}
	}
	vecs := mat.NewCDense(3, 3, nil)
	eig.VectorsTo(vecs)

	// The ellipse solution is the eigenvector satisfying 4ac - b^2 > 0.
	var quad []float64
	for j := 0; j < 3; j++ {
		v0 := real(vecs.At(0, j))
		v1 := real(vecs.At(1, j))
		v2 := real(vecs.At(2, j))
		if 4*v0*v2-v1*v1 > 0 {
			quad = []float64{v0, v1, v2}
			break
		}
	}
	if quad == nil {
		return Spot{}
	}
	// Eigenvector sign is arbitrary; fix it so the quadratic form is positive
	// definite and the eigenvalue-to-axis mapping below holds.
	if quad[0]+quad[2] < 0 {
		for i := range quad {
			quad[i] = -quad[i]
		}
	}

	var lin mat.VecDense
	lin.MulVec(&t, mat.NewVecDense(3, quad))

	a, b, c := quad[0], quad[1], quad[2]
	d, e, f := lin.AtVec(0), lin.AtVec(1), lin.AtVec(2)

	den := b*b - 4*a*c
	if den >= 0 {
		return Spot{}
	}
	cx := (2*c*d - b*e) / den
	cy := (2*a*e - b*d) / den

	// Translate to the centered origin and read the axes off the eigenvalues
	// of the quadratic form [[a, b/2], [b/2, c]].
	f0 := a*cx*cx + b*cx*cy + c*cy*cy + d*cx + e*cy + f
	sr := math.Sqrt((a-c)*(a-c) + b*b)
	lamMax := (a + c + sr) / 2
	lamMin := (a + c - sr) / 2

	semiMajor2 := -f0 / lamMin
	semiMinor2 := -f0 / lamMax
	if semiMajor2 <= 0 || semiMinor2 <= 0 ||
		math.IsNaN(semiMajor2) || math.IsNaN(semiMinor2) {
		return Spot{}
	}
	semiMajor := math.Sqrt(semiMajor2)
	semiMinor := math.Sqrt(semiMinor2)

	// Major-axis direction plus the +90 Spot convention folds back to the
	// direction of the dominant eigenvector, modulo 180.
	angle := 0.5 * math.Atan2(b, a-c) * 180 / math.Pi
	for angle < 0 {
		angle += 180
	}
	for angle >= 180 {
		angle -= 180
	}

	return Spot{
		Center: geometry.Point2D{X: cx + mean.X, Y: cy + mean.Y},
		Width:  2 * semiMajor,
		Height: 2 * semiMinor,
		Angle:  angle,
		Mass:   math.Pi * semiMajor * semiMinor,
	}
}
