package overlay

// naturalSpline interpolates a cubic spline with natural boundary
// conditions (zero second derivative at both ends) through the given
// knots. Knot positions must be strictly increasing.
type naturalSpline struct {
	xs []float64
	ys []float64
	m  []float64
}

func newNaturalSpline(xs, ys []float64) *naturalSpline {
	n := len(xs)
	s := &naturalSpline{xs: xs, ys: ys, m: make([]float64, n)}
	if n < 3 {
		return s
	}

	// Solve the tridiagonal system for the second derivatives with the
	// Thomas algorithm.
	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
	}
	diag := make([]float64, n)
	rhs := make([]float64, n)
	diag[0] = 1
	diag[n-1] = 1
	for i := 1; i < n-1; i++ {
		diag[i] = 2 * (h[i-1] + h[i])
		rhs[i] = 6 * ((ys[i+1]-ys[i])/h[i] - (ys[i]-ys[i-1])/h[i-1])
	}
	upper := make([]float64, n-1)
	for i := 1; i < n-1; i++ {
		upper[i] = h[i]
	}
	lower := make([]float64, n-1)
	for i := 1; i < n-1; i++ {
		lower[i-1] = h[i-1]
	}
	lower[0] = 0
	upper[n-2] = 0

	for i := 1; i < n; i++ {
		factor := lower[i-1] / diag[i-1]
		diag[i] -= factor * upper[i-1]
		rhs[i] -= factor * rhs[i-1]
	}
	s.m[n-1] = rhs[n-1] / diag[n-1]
	for i := n - 2; i >= 0; i-- {
		s.m[i] = (rhs[i] - upper[i]*s.m[i+1]) / diag[i]
	}
	return s
}

func (s *naturalSpline) at(x float64) float64 {
	n := len(s.xs)
	if n == 1 {
		return s.ys[0]
	}

	// Clamp to the knot range, then find the containing segment.
	if x <= s.xs[0] {
		x = s.xs[0]
	}
	if x >= s.xs[n-1] {
		x = s.xs[n-1]
	}
	segment := 0
	for segment < n-2 && x > s.xs[segment+1] {
		segment++
	}

	h := s.xs[segment+1] - s.xs[segment]
	a := (s.xs[segment+1] - x) / h
	b := (x - s.xs[segment]) / h
	return a*s.ys[segment] + b*s.ys[segment+1] +
		((a*a*a-a)*s.m[segment]+(b*b*b-b)*s.m[segment+1])*(h*h)/6
}
