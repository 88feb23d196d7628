// core/worth/convert.go
package worth

import (
	"fmt"
	"math"
	"sort"
)

// Sample is one (height, k_eff) measurement for a rod.
type Sample struct {
	Height float64 // percent withdrawn, [0,100]
	Keff   float64
	Unc    float64 // one standard deviation of Keff
}

// Point is a derived reactivity value at a height, in percent-Δρ unless
// rescaled with Scale.
type Point struct {
	Height float64
	Rho    float64
	Unc    float64
}

// Unit selects the reporting scale for reactivity values.
type Unit int

const (
	PercentDeltaRho Unit = iota // %Δρ, the computation unit
	PCM                         // 1e-5 Δk/k
	Dollars                     // Δk/k divided by beta_eff
)

func ParseUnit(s string) (Unit, error) {
	switch s {
	case "percent", "pct", "%":
		return PercentDeltaRho, nil
	case "pcm":
		return PCM, nil
	case "dollars", "$":
		return Dollars, nil
	}
	return 0, fmt.Errorf("unknown reactivity unit %q", s)
}

func (u Unit) String() string {
	switch u {
	case PCM:
		return "pcm"
	case Dollars:
		return "$"
	}
	return "%Δρ"
}

// Reference picks the default reference sample for a rod: its
// highest-height (most withdrawn) measurement. Returns false when no
// usable sample exists.
func Reference(samples []Sample) (Sample, bool) {
	best := Sample{Height: math.Inf(-1)}
	ok := false
	for _, s := range samples {
		if !usable(s) {
			continue
		}
		if s.Height > best.Height {
			best, ok = s, true
		}
	}
	return best, ok
}

func usable(s Sample) bool {
	return !math.IsNaN(s.Keff) && s.Keff > 0
}

// Convert derives integral reactivity worth in %Δρ for each sample
// against the reference:
//
//	rho = 100 * (k - k_ref) / (k * k_ref)
//
// so rho rises with k_eff and is zero at the reference.
//
// Uncertainty is first-order propagation through numerator and
// denominator, combined in quadrature. Samples are treated as
// statistically independent of each other and of the reference, which
// enters every point as a shared constant; no covariance terms are
// carried.
//
// The result is sorted by ascending height. Samples with a missing or
// NaN k_eff are dropped individually; they never disqualify the rod.
func Convert(samples []Sample, ref Sample) []Point {
	pts := make([]Point, 0, len(samples))
	for _, s := range samples {
		if !usable(s) {
			continue
		}
		num := s.Keff - ref.Keff
		den := ref.Keff * s.Keff
		rho := 100 * num / den

		var unc float64
		if num != 0 {
			dNum := math.Hypot(ref.Unc, s.Unc)
			dDen := den * math.Hypot(ref.Unc/ref.Keff, s.Unc/s.Keff)
			unc = math.Abs(rho) * math.Hypot(dNum/num, dDen/den)
		}
		pts = append(pts, Point{Height: s.Height, Rho: rho, Unc: unc})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Height < pts[j].Height })
	return pts
}

// Differential returns the finite-difference worth between adjacent
// integral points: d(h_i) = (rho(h_{i+1}) - rho(h_i)) / Δh, attributed
// to the lower height. A rod with fewer than two points yields none.
func Differential(points []Point) []Point {
	if len(points) < 2 {
		return nil
	}
	out := make([]Point, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		dh := b.Height - a.Height
		if dh == 0 {
			continue
		}
		out = append(out, Point{
			Height: a.Height,
			Rho:    (b.Rho - a.Rho) / dh,
			Unc:    math.Hypot(a.Unc, b.Unc) / dh,
		})
	}
	return out
}

// Factor is the multiplier taking a %Δρ value into this unit. betaEff
// is only consulted for Dollars.
func (u Unit) Factor(betaEff float64) float64 {
	switch u {
	case PCM:
		return 1000 // %Δρ -> 1e-5 Δk/k
	case Dollars:
		return 0.01 / betaEff
	}
	return 1
}

// Scale converts %Δρ points to the requested unit.
func Scale(points []Point, u Unit, betaEff float64) []Point {
	f := u.Factor(betaEff)
	if f == 1.0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Height: p.Height, Rho: p.Rho * f, Unc: p.Unc * f}
	}
	return out
}
