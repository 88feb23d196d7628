// internal/plotapp/app.go
package plotapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"rodcal-core/worth"
	"rodcal/internal/appcore"
	"rodcal/internal/config"
	"rodcal/internal/logging"
	"rodcal/internal/plotcli"
	"rodcal/internal/version"
	"rodcal/internal/writers"
)

// Exit codes: 0 ok, 2 usage or configuration, 3 I/O.
func RunContext(_ context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := plotcli.NewFlagSet("rodcal-plot")
	fs.SetOutput(io.Discard)

	opts, err := plotcli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.Usage()
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintf(stdout, "rodcal-plot version %s\n", version.Version)
		return 0
	}

	log, err := logging.New(stderr, opts.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 2
		}
	}

	keff, err := writers.LoadTableFile(opts.KeffCSV)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, fmt.Errorf("reading %s: %w", opts.KeffCSV, err))
		if os.IsNotExist(err) {
			return 3
		}
		return 2
	}

	unit, _ := worth.ParseUnit(opts.Units)
	params, err := appcore.Analyze(appcore.Options{
		Keff:       keff,
		Cfg:        cfg,
		Unit:       unit,
		KCrit:      opts.KCrit,
		KCritUnc:   opts.KCritUnc,
		RhoPath:    opts.RhoCSV,
		ParamsPath: opts.ParamsCSV,
		PlotPath:   opts.Plot,
		Log:        log,
	})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	for _, p := range params {
		_, _ = fmt.Fprintf(stdout, "%s: worth %.3f $, max %.4f $/in, max motor speed %.1f in/min\n",
			p.Rod, p.TotalWorth, p.MaxDiffPerInch, p.MaxMotorSpeed)
	}
	return 0
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
