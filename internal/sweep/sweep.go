// internal/sweep/sweep.go
package sweep

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"rodcal-core/deck"
	"rodcal-core/mcnpout"
)

// Options configures one calibration sweep.
type Options struct {
	Template   string // path to the base deck
	Rods       []deck.Rod
	Heights    []int // percent withdrawals, ascending
	InputsDir  string
	OutputsDir string

	// SkipRun reports samples whose output is missing instead of
	// invoking the simulator (deck generation still happens).
	SkipRun bool

	Runner Runner
	Log    *zap.Logger
}

// Result is one parsed sample.
type Result struct {
	Key  Key
	Keff float64
	Unc  float64
}

// Failure records a per-sample error the sweep survived.
type Failure struct {
	Key  Key
	Path string
	Err  error
}

// Report is the sweep's full accounting: every enumerated sample lands
// in exactly one of Results, Pending, or Failures.
type Report struct {
	Results      []Result
	Pending      []Key // output missing and the tool was not run
	Failures     []Failure
	DecksCreated int
	CacheHits    int
}

// Run drives the whole pipeline for every (rod, height) sample:
// generate the deck if absent, ensure an output exists (invoking the
// simulator on a cache miss), and parse k_eff out of it.
//
// Deck-editing errors abort the sweep: they mean the rod configuration
// does not match the template, so every remaining sample would fail the
// same way. Simulator and parse errors are per-sample; the sweep
// records them and moves on.
func Run(ctx context.Context, o Options) (*Report, error) {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	template, err := os.ReadFile(o.Template)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	hash := TemplateHash(template)

	d, err := deck.Parse(bytes.NewReader(template), o.Rods)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", o.Template, err)
	}
	if !HasKcode(template) {
		log.Warn("template has no kcode card; outputs will carry no k(eff) estimate",
			zap.String("template", o.Template))
	}

	if err := os.MkdirAll(o.InputsDir, 0o755); err != nil {
		return nil, err
	}
	cache, err := OpenCache(o.OutputsDir)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, rod := range o.Rods {
		for _, h := range o.Heights {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			key := Key{Rod: rod.Name, Height: h}

			inputPath := filepath.Join(o.InputsDir, key.DeckName())
			if _, err := os.Stat(inputPath); err != nil {
				edited, err := d.Edit(rod.Name, float64(h))
				if err != nil {
					return rep, fmt.Errorf("sample %s: %w", key, err)
				}
				if err := os.WriteFile(inputPath, edited.Bytes(), 0o644); err != nil {
					return rep, fmt.Errorf("writing %s: %w", inputPath, err)
				}
				rep.DecksCreated++
				log.Debug("deck created", zap.String("deck", inputPath))
			}

			outputPath, status := cache.Lookup(key, hash)
			switch status {
			case Hit:
				rep.CacheHits++
				log.Debug("output cached", zap.String("output", outputPath))
			case Stale:
				log.Warn("output is from a different template, rerunning",
					zap.String("sample", key.String()), zap.String("output", outputPath))
				fallthrough
			case Miss:
				if o.SkipRun {
					rep.Pending = append(rep.Pending, key)
					log.Info("sample pending: output missing and runs are disabled",
						zap.String("sample", key.String()))
					continue
				}
				if status == Stale {
					if err := cache.Invalidate(key); err != nil {
						rep.Failures = append(rep.Failures, Failure{Key: key, Path: outputPath, Err: err})
						log.Error("cannot discard stale output",
							zap.String("sample", key.String()), zap.Error(err))
						continue
					}
				}
				log.Info("running simulator",
					zap.String("sample", key.String()), zap.String("deck", inputPath))
				if err := o.Runner.Run(ctx, inputPath, outputPath); err != nil {
					if ctx.Err() != nil {
						return rep, ctx.Err()
					}
					rep.Failures = append(rep.Failures, Failure{Key: key, Path: inputPath, Err: err})
					log.Error("simulator failed",
						zap.String("sample", key.String()), zap.Error(err))
					continue
				}
				if err := cache.Record(key, hash); err != nil {
					return rep, err
				}
			}

			res, err := mcnpout.ParseFile(outputPath)
			if err != nil {
				rep.Failures = append(rep.Failures, Failure{Key: key, Path: outputPath, Err: err})
				log.Error("output not usable",
					zap.String("sample", key.String()),
					zap.String("output", outputPath), zap.Error(err))
				continue
			}
			rep.Results = append(rep.Results, Result{Key: key, Keff: res.Keff, Unc: res.StdDev})
			log.Info("sample parsed",
				zap.String("sample", key.String()),
				zap.Float64("keff", res.Keff), zap.Float64("unc", res.StdDev))
		}
	}

	CleanupScratch(o.OutputsDir)
	return rep, nil
}

// HasKcode reports whether the template carries a kcode card, required
// by the external tool for criticality estimates.
func HasKcode(template []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(template))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) > 0 && strings.EqualFold(f[0], "kcode") {
			return true
		}
	}
	return false
}
