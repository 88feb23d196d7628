// internal/appcore/analyze_test.go
package appcore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rodcal-core/worth"
	"rodcal/internal/config"
	"rodcal/internal/writers"
)

func keffTable() *writers.Table {
	t := writers.NewTable([]string{"shim"})
	t.Set("shim", 0, 0.98000, 0.0004)
	t.Set("shim", 25, 0.98600, 0.0004)
	t.Set("shim", 50, 0.99400, 0.0004)
	t.Set("shim", 75, 0.99900, 0.0004)
	t.Set("shim", 100, 1.00100, 0.0004)
	return t
}

func TestAnalyzeWritesProducts(t *testing.T) {
	dir := t.TempDir()
	rhoPath := filepath.Join(dir, "rho.csv")
	paramsPath := filepath.Join(dir, "rod_parameters.csv")
	plotPath := filepath.Join(dir, "worth.png")

	params, err := Analyze(Options{
		Keff: keffTable(), Cfg: config.Default(), Unit: worth.Dollars,
		RhoPath: rhoPath, ParamsPath: paramsPath, PlotPath: plotPath,
	})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "shim", params[0].Rod)
	assert.Greater(t, params[0].TotalWorth, 2.0, "five percent span at beta 0.0075")
	assert.Greater(t, params[0].MaxMotorSpeed, 0.0)

	rho, err := writers.LoadTableFile(rhoPath)
	require.NoError(t, err)
	top, ok := rho.Get("shim", 100)
	require.True(t, ok)
	assert.InDelta(t, 0, top.Val, 1e-12, "reference height has zero worth")
	bottom, ok := rho.Get("shim", 0)
	require.True(t, ok)
	assert.Less(t, bottom.Val, 0.0, "fully inserted is below reference")

	raw, err := os.ReadFile(paramsPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "rod,worth ($),"))

	st, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))
}

func TestAnalyzeKCritReference(t *testing.T) {
	params, err := Analyze(Options{
		Keff: keffTable(), Cfg: config.Default(), Unit: worth.PercentDeltaRho,
		KCrit: 1.0, KCritUnc: 0.0003,
		RhoPath: filepath.Join(t.TempDir(), "rho.csv"),
	})
	require.NoError(t, err)
	require.Len(t, params, 1)
	// k at 100% exceeds the pinned critical reference, so the top of the
	// curve sits above zero.
	assert.Greater(t, params[0].TotalWorth, 0.0)
}

func TestAnalyzeSkipsEmptyRod(t *testing.T) {
	tab := writers.NewTable([]string{"safe", "shim"})
	tab.Set("shim", 0, 0.98, 0.0004)
	tab.Set("shim", 100, 1.00, 0.0004)

	params, err := Analyze(Options{
		Keff: tab, Cfg: config.Default(), Unit: worth.Dollars,
	})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "shim", params[0].Rod)
}
