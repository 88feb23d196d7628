// internal/appcore/analyze.go
package appcore

import (
	"fmt"

	"go.uber.org/zap"
	"rodcal-core/worth"
	"rodcal/internal/config"
	"rodcal/internal/plotting"
	"rodcal/internal/writers"
)

// Options drives the analysis stage shared by the sweep binary and the
// offline plotter: a k_eff table in, worth products out. The table may
// come from live parsed runs or from an operator-supplied CSV; the
// stage cannot tell the difference.
type Options struct {
	Keff *writers.Table
	Cfg  *config.Config

	Unit worth.Unit

	// KCrit pins the reference k_eff for every rod when > 0; otherwise
	// each rod references its own most-withdrawn sample.
	KCrit    float64
	KCritUnc float64

	RhoPath    string // empty disables the rho table
	ParamsPath string // empty disables the parameter summary
	PlotPath   string // empty disables the figure

	Log *zap.Logger
}

// Analyze converts the k_eff table to reactivity worth and writes the
// requested products. A rod with no usable samples is skipped with a
// warning; it never fails the others.
func Analyze(o Options) ([]worth.RodParams, error) {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	ph := worth.Physics{
		BetaEff:   o.Cfg.BetaEff,
		RateLimit: o.Cfg.RateLimit,
	}
	speeds := o.Cfg.MotorSpeeds()
	factor := o.Unit.Factor(o.Cfg.BetaEff)

	rho := writers.NewTable(o.Keff.Rods)
	var (
		params []worth.RodParams
		curves []plotting.RodCurve
	)
	for _, rod := range o.Keff.Rods {
		samples := o.Keff.Samples(rod)
		if len(samples) == 0 {
			log.Warn("rod has no samples", zap.String("rod", rod))
			continue
		}

		ref := worth.Sample{Height: 100, Keff: o.KCrit, Unc: o.KCritUnc}
		if o.KCrit <= 0 {
			r, ok := worth.Reference(samples)
			if !ok {
				log.Warn("rod has no usable reference sample", zap.String("rod", rod))
				continue
			}
			ref = r
		}

		pct := worth.Convert(samples, ref)
		fit, err := worth.FitCubic(pct)
		if err != nil && len(pct) >= 2 {
			// Too few heights for a cubic; fit what the data supports.
			fit, err = worth.FitPoly(pct, len(pct)-1)
		}
		if err != nil {
			log.Warn("no worth curve for rod",
				zap.String("rod", rod), zap.Int("points", len(pct)), zap.Error(err))
			fit = nil
		}

		scaled := worth.Scale(pct, o.Unit, o.Cfg.BetaEff)
		rho.SetPoints(rod, scaled)

		ph.CMPerPercent = o.Cfg.Coefficient(rod)
		p := worth.Parameters(rod, pct, fit, speeds[rod], ph)
		params = append(params, p)
		curves = append(curves, plotting.RodCurve{Rod: rod, Points: scaled, Fit: fit.Scale(factor)})

		log.Info("rod analyzed",
			zap.String("rod", rod),
			zap.Int("points", len(pct)),
			zap.Float64("ref_keff", ref.Keff),
			zap.Float64("worth_dollars", p.TotalWorth))
	}

	if o.RhoPath != "" {
		if err := writers.WriteFile("rho", o.RhoPath, rho); err != nil {
			return params, fmt.Errorf("writing %s: %w", o.RhoPath, err)
		}
		log.Info("reactivity table written", zap.String("path", o.RhoPath))
	}
	if o.ParamsPath != "" && len(params) > 0 {
		if err := writers.WriteFile("params", o.ParamsPath, params); err != nil {
			return params, fmt.Errorf("writing %s: %w", o.ParamsPath, err)
		}
		log.Info("rod parameters written", zap.String("path", o.ParamsPath))
	}
	if o.PlotPath != "" && len(curves) > 0 {
		if err := plotting.Render(curves, o.Unit, o.PlotPath); err != nil {
			return params, fmt.Errorf("rendering %s: %w", o.PlotPath, err)
		}
		log.Info("worth figure written", zap.String("path", o.PlotPath))
	}
	return params, nil
}
