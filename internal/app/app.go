// internal/app/app.go
package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"rodcal-core/deck"
	"rodcal-core/worth"
	"rodcal/internal/appcore"
	"rodcal/internal/cli"
	"rodcal/internal/config"
	"rodcal/internal/logging"
	"rodcal/internal/sweep"
	"rodcal/internal/version"
	"rodcal/internal/writers"
	"rodcal/pkg/api"
)

// Exit codes: 0 ok, 1 some samples failed or are pending, 2 usage or
// configuration, 3 I/O, 130 cancelled.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("rodcal")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(stdout, "rodcal version %s\n", version.Version)
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
	if err := cfg.Keep(opts.Rods); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Start >= 0 {
		cfg.Heights.Start, cfg.Heights.Stop = opts.Start, opts.Stop
	}
	if opts.Step > 0 {
		cfg.Heights.Step = opts.Step
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	inputs, outputs := cfg.Paths.Inputs, cfg.Paths.Outputs
	if opts.InputsDir != "" {
		inputs = opts.InputsDir
	}
	if opts.OutputsDir != "" {
		outputs = opts.OutputsDir
	}

	rep, err := sweep.Run(parent, sweep.Options{
		Template:   opts.Template,
		Rods:       cfg.DeckRods(),
		Heights:    cfg.HeightList(),
		InputsDir:  inputs,
		OutputsDir: outputs,
		SkipRun:    opts.SkipRun,
		Runner: &sweep.ToolRunner{
			Command: cfg.Simulator.Command,
			Args:    cfg.Simulator.Args,
			Tasks:   opts.Tasks,
		},
		Log: log,
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return 130
		case errors.Is(err, deck.ErrMarkerNotFound), errors.Is(err, deck.ErrNoMatchingSurface):
			_, _ = fmt.Fprintln(stderr, err)
			return 2
		default:
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
	}

	keff := writers.NewTable(cfg.RodNames())
	for _, r := range rep.Results {
		keff.Set(r.Key.Rod, float64(r.Key.Height), r.Keff, r.Unc)
	}
	if opts.KeffCSV != "" {
		if err := writers.WriteFile("keff", opts.KeffCSV, keff); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		log.Info("k_eff table written", zap.String("path", opts.KeffCSV))
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

	if opts.ReportJSON != "" {
		if err := writeReport(opts.ReportJSON, opts.Template, cfg, unit, rep, params); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		log.Info("run report written", zap.String("path", opts.ReportJSON))
	}

	printSummary(stdout, rep, params)
	if len(rep.Failures) > 0 || len(rep.Pending) > 0 {
		return 1
	}
	return 0
}

// writeReport serializes the run under the stable v1 schema.
func writeReport(path, template string, cfg *config.Config, unit worth.Unit, rep *sweep.Report, params []worth.RodParams) error {
	r := api.ReportV1{
		Facility: cfg.Facility,
		Template: template,
		Unit:     unit.String(),
	}
	for _, s := range rep.Results {
		r.Samples = append(r.Samples, api.SampleV1{
			Rod: s.Key.Rod, Height: s.Key.Height, Keff: s.Keff, Unc: s.Unc,
		})
	}
	for _, k := range rep.Pending {
		r.Pending = append(r.Pending, api.SampleRef{Rod: k.Rod, Height: k.Height})
	}
	for _, f := range rep.Failures {
		r.Failures = append(r.Failures, api.FailureV1{
			Rod: f.Key.Rod, Height: f.Key.Height, Path: f.Path, Error: f.Err.Error(),
		})
	}
	for _, p := range params {
		r.Rods = append(r.Rods, api.RodParamsV1{
			Rod:               p.Rod,
			TotalWorth:        p.TotalWorth,
			MaxDiffPerPercent: p.MaxDiffPerPercent,
			MaxDiffPerInch:    p.MaxDiffPerInch,
			AdditionRate:      p.AdditionRate,
			MaxMotorSpeed:     p.MaxMotorSpeed,
		})
	}
	data, err := json.MarshalIndent(&r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printSummary(w io.Writer, rep *sweep.Report, params []worth.RodParams) {
	_, _ = fmt.Fprintf(w, "sweep: %d parsed, %d pending, %d failed (%d decks created, %d cached)\n",
		len(rep.Results), len(rep.Pending), len(rep.Failures), rep.DecksCreated, rep.CacheHits)
	for _, k := range rep.Pending {
		_, _ = fmt.Fprintf(w, "  pending %s (output missing, runs disabled)\n", k)
	}
	for _, f := range rep.Failures {
		_, _ = fmt.Fprintf(w, "  failed  %s: %v\n", f.Key, f.Err)
	}
	for _, p := range params {
		_, _ = fmt.Fprintf(w, "%s: worth %.3f $, max %.4f $/in, max motor speed %.1f in/min\n",
			p.Rod, p.TotalWorth, p.MaxDiffPerInch, p.MaxMotorSpeed)
	}
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
