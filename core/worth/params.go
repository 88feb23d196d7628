// core/worth/params.go
package worth

// Physics holds the facility constants the parameter summary depends
// on. Values are configuration, not code (see the facility file).
type Physics struct {
	BetaEff      float64 // effective delayed neutron fraction
	CMPerPercent float64 // rod travel per percent withdrawal
	RateLimit    float64 // licensed reactivity addition limit, $/s
}

// RodParams is the operational summary derived from one rod's integral
// worth curve, in the source facility's reporting units.
type RodParams struct {
	Rod string

	// TotalWorth is the rod's full-travel worth in dollars.
	TotalWorth float64

	// MaxDiffPerPercent is the steepest differential worth, $/% height.
	MaxDiffPerPercent float64

	// MaxDiffPerInch is the same expressed per inch of rod travel.
	MaxDiffPerInch float64

	// AdditionRate is the reactivity addition rate at the rod's drive
	// motor speed, $/s.
	AdditionRate float64

	// MaxMotorSpeed is the fastest drive speed (in/min) that keeps the
	// addition rate within the configured limit.
	MaxMotorSpeed float64
}

const cmPerInch = 2.54

// Parameters summarizes a rod from its %Δρ integral points and fitted
// curve. motorSpeed is the drive speed in inches per minute.
func Parameters(rod string, points []Point, fit Poly, motorSpeed float64, ph Physics) RodParams {
	p := RodParams{Rod: rod}
	if len(points) == 0 || ph.BetaEff == 0 {
		return p
	}

	minRho, maxRho := points[0].Rho, points[0].Rho
	for _, pt := range points[1:] {
		if pt.Rho > maxRho {
			maxRho = pt.Rho
		}
		if pt.Rho < minRho {
			minRho = pt.Rho
		}
	}
	// Full-travel span of the integral curve, %Δρ -> Δk/k -> dollars.
	p.TotalWorth = 0.01 * (maxRho - minRho) / ph.BetaEff

	diff := fit.Derivative()
	maxDiff := 0.0
	for _, pt := range points {
		if v := diff.Eval(pt.Height); v > maxDiff {
			maxDiff = v
		}
	}
	p.MaxDiffPerPercent = 0.01 * maxDiff / ph.BetaEff
	if ph.CMPerPercent > 0 {
		p.MaxDiffPerInch = p.MaxDiffPerPercent / ph.CMPerPercent * cmPerInch
	}
	p.AdditionRate = motorSpeed * p.MaxDiffPerInch / 60
	if p.MaxDiffPerInch > 0 {
		p.MaxMotorSpeed = ph.RateLimit / p.MaxDiffPerInch * 60
	}
	return p
}
