// internal/plotting/plotting.go
package plotting

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"rodcal-core/worth"
)

// RodCurve is one rod's integral worth data, already in display units.
// Fit may be nil when the rod has too few points for a curve.
type RodCurve struct {
	Rod    string
	Points []worth.Point
	Fit    worth.Poly
}

// Fixed per-rod colors so successive reports stay comparable. Order
// follows the facility rod order passed in.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

type errPoints []worth.Point

func (e errPoints) Len() int                    { return len(e) }
func (e errPoints) XY(i int) (float64, float64) { return e[i].Height, e[i].Rho }
func (e errPoints) YError(i int) (float64, float64) {
	return e[i].Unc, e[i].Unc
}

// Render draws the two-panel worth figure: integral worth (measured
// points with error bars plus the fitted cubic) above, differential
// worth (the fit's derivative) below, sharing the height axis. The
// figure is written to path as a PNG.
func Render(curves []RodCurve, unit worth.Unit, path string) error {
	if len(curves) == 0 {
		return fmt.Errorf("nothing to plot")
	}

	integral := plot.New()
	integral.Title.Text = "Integral rod worth"
	integral.X.Label.Text = "height withdrawn (%)"
	integral.Y.Label.Text = "worth (" + unit.String() + ")"

	differential := plot.New()
	differential.Title.Text = "Differential rod worth"
	differential.X.Label.Text = "height withdrawn (%)"
	differential.Y.Label.Text = "worth (" + unit.String() + "/%)"

	xmin, xmax := axisRange(curves)
	for _, p := range []*plot.Plot{integral, differential} {
		p.X.Min, p.X.Max = xmin, xmax
	}

	for i, c := range curves {
		col := palette[i%len(palette)]
		if len(c.Points) > 0 {
			pts := errPoints(c.Points)
			scatter, err := plotter.NewScatter(pts)
			if err != nil {
				return err
			}
			scatter.Color = col
			scatter.Radius = vg.Points(2)
			bars, err := plotter.NewYErrorBars(pts)
			if err != nil {
				return err
			}
			bars.Color = col
			integral.Add(scatter, bars)
			integral.Legend.Add(c.Rod, scatter)
		}
		if len(c.Fit) > 1 {
			line, err := plotter.NewLine(sample(c.Fit, xmin, xmax))
			if err != nil {
				return err
			}
			line.Color = col
			integral.Add(line)

			dline, err := plotter.NewLine(sample(c.Fit.Derivative(), xmin, xmax))
			if err != nil {
				return err
			}
			dline.Color = col
			differential.Add(dline)
			differential.Legend.Add(c.Rod, dline)
		}
	}
	integral.Legend.Top = true
	integral.Legend.Left = true
	differential.Legend.Top = true
	// A sweep of single-point rods has no curves; keep the axes finite.
	if differential.Y.Min > differential.Y.Max {
		differential.Y.Min, differential.Y.Max = 0, 1
	}
	if integral.Y.Min > integral.Y.Max {
		integral.Y.Min, integral.Y.Max = 0, 1
	}

	img := vgimg.New(6*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 1,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{{integral}, {differential}}, tiles, dc)
	integral.Draw(canvases[0][0])
	differential.Draw(canvases[1][0])

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// sample evaluates the polynomial on a dense grid so the drawn curve
// participates in axis auto-ranging.
func sample(p worth.Poly, xmin, xmax float64) plotter.XYs {
	const n = 101
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		x := xmin + (xmax-xmin)*float64(i)/(n-1)
		xys[i].X, xys[i].Y = x, p.Eval(x)
	}
	return xys
}

func axisRange(curves []RodCurve) (float64, float64) {
	xmin, xmax := 0.0, 100.0
	seen := false
	for _, c := range curves {
		for _, p := range c.Points {
			if !seen {
				xmin, xmax, seen = p.Height, p.Height, true
				continue
			}
			if p.Height < xmin {
				xmin = p.Height
			}
			if p.Height > xmax {
				xmax = p.Height
			}
		}
	}
	if !seen || xmin == xmax {
		return 0, 100
	}
	return xmin, xmax
}
