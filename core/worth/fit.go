// core/worth/fit.go
package worth

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Poly is a polynomial with coefficients in ascending power order.
type Poly []float64

// FitPoly least-squares fits a degree-d polynomial through the integral
// worth points (QR on the Vandermonde system). Needs at least d+1
// points.
func FitPoly(points []Point, degree int) (Poly, error) {
	if degree < 1 {
		return nil, errors.New("fit degree must be >= 1")
	}
	if len(points) < degree+1 {
		return nil, errors.New("not enough points for fit")
	}
	rows, cols := len(points), degree+1
	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)
	for i, p := range points {
		x := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, x)
			x *= p.Height
		}
		b.SetVec(i, p.Rho)
	}
	var qr mat.QR
	qr.Factorize(a)
	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		return nil, err
	}
	out := make(Poly, cols)
	for j := 0; j < cols; j++ {
		out[j] = c.AtVec(j)
	}
	return out, nil
}

// FitCubic is the conventional worth-curve fit.
func FitCubic(points []Point) (Poly, error) { return FitPoly(points, 3) }

// Eval evaluates the polynomial at x (Horner).
func (p Poly) Eval(x float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// Scale returns the polynomial with every coefficient multiplied by f,
// the curve analogue of rescaling the points it was fitted through.
func (p Poly) Scale(f float64) Poly {
	if p == nil {
		return nil
	}
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = c * f
	}
	return out
}

// Derivative returns dp/dx.
func (p Poly) Derivative() Poly {
	if len(p) <= 1 {
		return Poly{0}
	}
	d := make(Poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}
