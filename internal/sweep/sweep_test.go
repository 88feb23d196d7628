// internal/sweep/sweep_test.go
package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rodcal-core/deck"
)

const testTemplate = `test stand model
c Shim Rod (0% Withdrawn)
812301   pz   5.120640  $ bottom of rod
c End of Shim Rod
kcode 100000 1.0 15 115
`

func testRods() []deck.Rod {
	return []deck.Rod{{Name: "shim", SurfacePrefix: "8", CMPerPercent: 0.38}}
}

// fakeRunner stands in for the simulator: it writes a converged listing
// or fails on demand. Like the real tool, it refuses to write over an
// existing listing, so the sweep must clear invalidated outputs first.
type fakeRunner struct {
	runs    int
	failFor map[string]bool // input deck base name -> fail
	garbage bool
}

func (f *fakeRunner) Run(_ context.Context, input, output string) error {
	f.runs++
	base := filepath.Base(input)
	if f.failFor[base] {
		return &ToolError{Input: input, ExitCode: 137, Stderr: "bad trouble in deck"}
	}
	if _, err := os.Stat(output); err == nil {
		return &ToolError{Input: input, ExitCode: 1, Stderr: "fatal error: outp already exists"}
	}
	body := " the final estimated combined k(eff) = 0.99850 with an estimated standard deviation of 0.00042\n"
	if f.garbage {
		body = "run terminated because of a fatal error.\n"
	}
	return os.WriteFile(output, []byte(body), 0o644)
}

func sweepDirs(t *testing.T) (template, inputs, outputs string) {
	t.Helper()
	dir := t.TempDir()
	template = filepath.Join(dir, "rc.i")
	require.NoError(t, os.WriteFile(template, []byte(testTemplate), 0o644))
	return template, filepath.Join(dir, "inputs"), filepath.Join(dir, "outputs")
}

func TestRunFullSweep(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	fr := &fakeRunner{}
	rep, err := Run(context.Background(), Options{
		Template: template, Rods: testRods(), Heights: []int{0, 5, 10},
		InputsDir: inputs, OutputsDir: outputs, Runner: fr,
	})
	require.NoError(t, err)
	assert.Len(t, rep.Results, 3)
	assert.Equal(t, 3, rep.DecksCreated)
	assert.Equal(t, 3, fr.runs)
	assert.Empty(t, rep.Pending)
	assert.Empty(t, rep.Failures)

	for _, h := range []int{0, 5, 10} {
		deckPath := filepath.Join(inputs, fmt.Sprintf("rc-shim-%03d.i", h))
		_, err := os.Stat(deckPath)
		assert.NoError(t, err, "deck for height %d", h)
	}
	assert.Equal(t, 0.99850, rep.Results[0].Keff)
}

// Spec sweep accounting: outputs exist for 0 and 10 only, runs are
// disabled -> two results and exactly one pending sample, never a
// silent drop.
func TestRunSkipRunReportsPending(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	require.NoError(t, os.MkdirAll(outputs, 0o755))
	body := " the final estimated combined k(eff) = 1.00100 with an estimated standard deviation of 0.00030\n"
	for _, h := range []int{0, 10} {
		p := filepath.Join(outputs, fmt.Sprintf("o_rc-shim-%03d.o", h))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	rep, err := Run(context.Background(), Options{
		Template: template, Rods: testRods(), Heights: []int{0, 5, 10},
		InputsDir: inputs, OutputsDir: outputs, SkipRun: true, Runner: &fakeRunner{},
	})
	require.NoError(t, err)
	assert.Len(t, rep.Results, 2)
	require.Len(t, rep.Pending, 1)
	assert.Equal(t, Key{Rod: "shim", Height: 5}, rep.Pending[0])
	assert.Equal(t, 2, rep.CacheHits)
}

func TestRunToolFailureIsPerSample(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	fr := &fakeRunner{failFor: map[string]bool{"rc-shim-005.i": true}}
	rep, err := Run(context.Background(), Options{
		Template: template, Rods: testRods(), Heights: []int{0, 5, 10},
		InputsDir: inputs, OutputsDir: outputs, Runner: fr,
	})
	require.NoError(t, err)
	assert.Len(t, rep.Results, 2)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, Key{Rod: "shim", Height: 5}, rep.Failures[0].Key)
	var te *ToolError
	assert.True(t, errors.As(rep.Failures[0].Err, &te))
}

func TestRunUnconvergedOutputIsPerSample(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	rep, err := Run(context.Background(), Options{
		Template: template, Rods: testRods(), Heights: []int{0},
		InputsDir: inputs, OutputsDir: outputs, Runner: &fakeRunner{garbage: true},
	})
	require.NoError(t, err)
	assert.Empty(t, rep.Results)
	require.Len(t, rep.Failures, 1)
}

func TestRunStaleOutputRerun(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	fr := &fakeRunner{}
	opts := Options{
		Template: template, Rods: testRods(), Heights: []int{0},
		InputsDir: inputs, OutputsDir: outputs, Runner: fr,
	}
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, fr.runs)

	// Same template: cache hit, no rerun.
	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, fr.runs)
	assert.Equal(t, 1, rep.CacheHits)

	// Changed template: the recorded hash no longer matches. The stale
	// listing must be discarded before the rerun; the tool refuses to
	// overwrite it.
	require.NoError(t, os.WriteFile(template, []byte(testTemplate+"c tweaked\n"), 0o644))
	rep, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, fr.runs, "stale output must be regenerated")
	assert.Empty(t, rep.Failures)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, 0.99850, rep.Results[0].Keff)
}

func TestRunBadMarkerConfigIsFatal(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	rods := []deck.Rod{{Name: "ghost", SurfacePrefix: "8", CMPerPercent: 0.38}}
	_, err := Run(context.Background(), Options{
		Template: template, Rods: rods, Heights: []int{0},
		InputsDir: inputs, OutputsDir: outputs, Runner: &fakeRunner{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, deck.ErrMarkerNotFound))
}

func TestRunCancelled(t *testing.T) {
	template, inputs, outputs := sweepDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{
		Template: template, Rods: testRods(), Heights: []int{0},
		InputsDir: inputs, OutputsDir: outputs, Runner: &fakeRunner{},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasKcode(t *testing.T) {
	assert.True(t, HasKcode([]byte(testTemplate)))
	assert.False(t, HasKcode([]byte("c no criticality card here\n812301 pz 5.1\n")))
}
