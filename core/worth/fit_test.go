// core/worth/fit_test.go
package worth

import (
	"math"
	"testing"
)

func cubicPoints(a, b, c, d float64) []Point {
	var pts []Point
	for h := 0.0; h <= 100; h += 10 {
		pts = append(pts, Point{Height: h, Rho: a + b*h + c*h*h + d*h*h*h})
	}
	return pts
}

func TestFitCubicRecoversExactCubic(t *testing.T) {
	pts := cubicPoints(-3.2, 0.09, -4e-4, 1e-6)
	p, err := FitCubic(pts)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, pt := range pts {
		if got := p.Eval(pt.Height); math.Abs(got-pt.Rho) > 1e-8 {
			t.Errorf("fit(%v) = %v, want %v", pt.Height, got, pt.Rho)
		}
	}
}

func TestFitPolyNeedsEnoughPoints(t *testing.T) {
	pts := []Point{{Height: 0, Rho: 0}, {Height: 5, Rho: 1}}
	if _, err := FitPoly(pts, 3); err == nil {
		t.Error("cubic fit of 2 points accepted")
	}
	if _, err := FitPoly(pts, 0); err == nil {
		t.Error("degree 0 accepted")
	}
}

func TestDerivative(t *testing.T) {
	p := Poly{1, 2, 3} // 1 + 2x + 3x^2
	d := p.Derivative()
	if len(d) != 2 || d[0] != 2 || d[1] != 6 {
		t.Fatalf("derivative = %v, want [2 6]", d)
	}
	if got := d.Eval(2.0); got != 14 {
		t.Errorf("d(2) = %v, want 14", got)
	}
	if c := (Poly{5}).Derivative(); c.Eval(3) != 0 {
		t.Error("constant derivative not zero")
	}
}
