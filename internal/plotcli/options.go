// internal/plotcli/options.go
package plotcli

import (
	"errors"
	"flag"
	"fmt"

	"rodcal-core/worth"
	"rodcal/internal/version"
)

// Options holds all CLI flags for the offline plot binary, which reduces
// an existing k_eff table without ever touching the simulator.
type Options struct {
	KeffCSV string
	Config  string

	Units    string
	KCrit    float64
	KCritUnc float64

	RhoCSV    string
	ParamsCSV string
	Plot      string

	LogLevel string
	Version  bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: reduce a measured k_eff table to rod worth curves

Reads a height-by-rod k_eff CSV (the sweep's keff.csv, or one assembled
by hand) and writes the reactivity table, rod parameter summary, and
worth figure.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.KeffCSV, "keff-csv", "", "k_eff table to reduce [*]")
	fs.StringVar(&opt.Config, "config", "", "facility YAML file (defaults built in)")

	fs.StringVar(&opt.Units, "units", "dollars", "reactivity unit: percent | pcm | dollars [dollars]")
	fs.Float64Var(&opt.KCrit, "k-crit", 0, "pin the reference k_eff (0 = per-rod most-withdrawn sample)")
	fs.Float64Var(&opt.KCritUnc, "k-crit-unc", 0, "standard deviation of --k-crit [0]")

	fs.StringVar(&opt.RhoCSV, "rho-csv", "rho.csv", "reactivity table path")
	fs.StringVar(&opt.ParamsCSV, "params-csv", "rod_parameters.csv", "rod parameter summary path")
	fs.StringVar(&opt.Plot, "plot", "rod_worth.png", "worth figure path ('' disables)")

	fs.StringVar(&opt.LogLevel, "log-level", "info", "log level: debug | info | warn | error [info]")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	if opt.KeffCSV == "" {
		return opt, errors.New("--keff-csv is required")
	}
	if _, err := worth.ParseUnit(opt.Units); err != nil {
		return opt, err
	}
	if opt.KCrit < 0 || opt.KCritUnc < 0 {
		return opt, errors.New("--k-crit and --k-crit-unc must be ≥ 0")
	}
	return opt, nil
}
