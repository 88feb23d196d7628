// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"rodcal-core/worth"
	"rodcal/internal/version"
)

// Options holds all CLI flags and arguments for the sweep binary.
type Options struct {
	// Deck input
	Template string
	Config   string

	// Sweep shape
	Rods  []string
	Start int // -1 = from config
	Stop  int // -1 = from config
	Step  int // 0 = from config

	// Execution
	SkipRun bool
	Tasks   int

	// Analysis
	Units    string
	KCrit    float64
	KCritUnc float64

	// Output paths
	InputsDir  string // "" = from config
	OutputsDir string // "" = from config
	KeffCSV    string
	RhoCSV     string
	ParamsCSV  string
	Plot       string // "" disables the figure
	ReportJSON string // "" disables the machine-readable report

	LogLevel string
	Version  bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: control-rod calibration sweep driver

Edits a transport-code input deck over a range of rod heights, runs the
simulator where outputs are missing, and reduces the results to
reactivity worth curves.

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

	// Deck input
	fs.StringVar(&opt.Template, "template", "", "base input deck to edit per height [*]")
	fs.StringVar(&opt.Config, "config", "", "facility YAML file (defaults built in)")

	// Sweep shape
	rods := fs.String("rods", "", "comma-separated rod subset (default: all configured)")
	fs.IntVar(&opt.Start, "start", -1, "first height, percent withdrawn (default from config)")
	fs.IntVar(&opt.Stop, "stop", -1, "last height, percent withdrawn (default from config)")
	fs.IntVar(&opt.Step, "step", 0, "height step, percent (default from config)")

	// Execution
	fs.BoolVar(&opt.SkipRun, "skip-run", false, "never invoke the simulator; report missing outputs [false]")
	fs.IntVar(&opt.Tasks, "tasks", 1, "simulator task count for the {tasks} placeholder [1]")

	// Analysis
	fs.StringVar(&opt.Units, "units", "dollars", "reactivity unit: percent | pcm | dollars [dollars]")
	fs.Float64Var(&opt.KCrit, "k-crit", 0, "pin the reference k_eff (0 = per-rod most-withdrawn sample)")
	fs.Float64Var(&opt.KCritUnc, "k-crit-unc", 0, "standard deviation of --k-crit [0]")

	// Output paths
	fs.StringVar(&opt.InputsDir, "inputs", "", "generated deck directory (default from config)")
	fs.StringVar(&opt.OutputsDir, "outputs", "", "simulator output directory (default from config)")
	fs.StringVar(&opt.KeffCSV, "keff-csv", "keff.csv", "k_eff table path")
	fs.StringVar(&opt.RhoCSV, "rho-csv", "rho.csv", "reactivity table path")
	fs.StringVar(&opt.ParamsCSV, "params-csv", "rod_parameters.csv", "rod parameter summary path")
	fs.StringVar(&opt.Plot, "plot", "rod_worth.png", "worth figure path ('' disables)")
	fs.StringVar(&opt.ReportJSON, "report-json", "", "machine-readable run report path ('' disables)")

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
	opt.Rods = splitList(*rods)

	// Validation
	if opt.Template == "" {
		return opt, errors.New("--template is required")
	}
	if _, err := worth.ParseUnit(opt.Units); err != nil {
		return opt, err
	}
	if opt.Step < 0 {
		return opt, errors.New("--step must be ≥ 0")
	}
	if (opt.Start >= 0) != (opt.Stop >= 0) {
		return opt, errors.New("--start and --stop must be supplied together")
	}
	if opt.Start >= 0 && (opt.Start >= opt.Stop || opt.Stop > 100) {
		return opt, fmt.Errorf("height range %d..%d outside 0..100", opt.Start, opt.Stop)
	}
	if opt.KCrit < 0 || opt.KCritUnc < 0 {
		return opt, errors.New("--k-crit and --k-crit-unc must be ≥ 0")
	}
	if opt.Tasks < 1 {
		return opt, errors.New("--tasks must be ≥ 1")
	}
	return opt, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
