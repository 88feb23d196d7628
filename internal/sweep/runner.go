// internal/sweep/runner.go
package sweep

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner invokes the external simulation tool for one sample and blocks
// until it finishes. The sweep is sequential and applies no timeout; a
// hung simulator is an operator problem, not ours to guess at.
type Runner interface {
	Run(ctx context.Context, input, output string) error
}

// ToolError reports an abnormal simulator exit. It carries enough
// context for the operator to rerun the sample by hand.
type ToolError struct {
	Input    string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("simulator exited %d for %s", e.ExitCode, e.Input)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ToolRunner shells out to the configured simulator command. Argument
// templates may carry {input}, {output}, {output_stem} and {tasks}
// placeholders; {output_stem} is the output path without its extension,
// for tools that append their own suffix.
type ToolRunner struct {
	Command string
	Args    []string
	Tasks   int
}

func (r *ToolRunner) Run(ctx context.Context, input, output string) error {
	stem := strings.TrimSuffix(output, filepath.Ext(output))
	repl := strings.NewReplacer(
		"{input}", input,
		"{output}", output,
		"{output_stem}", stem,
		"{tasks}", strconv.Itoa(r.Tasks),
	)
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = repl.Replace(a)
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		code := -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
		return &ToolError{Input: input, ExitCode: code, Stderr: stderr.String()}
	}
	return nil
}

// CleanupScratch removes the simulator's runtape and source scratch
// files from dir; the listings are all the sweep needs.
func CleanupScratch(dir string) {
	for _, pat := range []string{"*.r", "*.s"} {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			continue
		}
		for _, m := range matches {
			_ = os.Remove(m)
		}
	}
}
