// internal/writers/table_test.go
package writers

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"rodcal-core/worth"
)

func TestWriteTableRoundTrip(t *testing.T) {
	tab := NewTable([]string{"safe", "shim"})
	tab.Set("safe", 0, 0.98512, 0.00041)
	tab.Set("safe", 5, 0.98890, 0.00039)
	tab.Set("shim", 0, 0.98377, 0.00044)
	// shim @5 deliberately missing.

	var buf bytes.Buffer
	if err := Write("keff", &buf, tab); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := buf.String()
	want := "height,safe,safe unc,shim,shim unc\n" +
		"0,0.98512,0.00041,0.98377,0.00044\n" +
		"5,0.9889,0.00039,,\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}

	back, err := LoadTable(strings.NewReader(got))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(tab.Rods, back.Rods); diff != "" {
		t.Errorf("rods (-want +got):\n%s", diff)
	}
	if _, ok := back.Get("shim", 5); ok {
		t.Error("missing cell resurrected as present")
	}
	c, ok := back.Get("safe", 5)
	if !ok || c.Val != 0.9889 || c.Unc != 0.00039 {
		t.Errorf("safe@5 = %+v,%v", c, ok)
	}
}

func TestTableSamplesSortedAndNaNDropped(t *testing.T) {
	tab := NewTable([]string{"reg"})
	tab.Set("reg", 50, 0.999, 0.0003)
	tab.Set("reg", 0, 0.985, 0.0004)
	tab.Set("reg", 25, math.NaN(), 0.0003)

	s := tab.Samples("reg")
	if len(s) != 2 || s[0].Height != 0 || s[1].Height != 50 {
		t.Fatalf("samples = %+v", s)
	}
}

func TestLoadTableRejectsBadShape(t *testing.T) {
	cases := []string{
		"",
		"h,safe,safe unc\n",
		"height,safe\n",
		"height,safe,safe unc\nx,1,1\n",
		"height,safe,safe unc\n0,zero,1\n",
	}
	for _, doc := range cases {
		if _, err := LoadTable(strings.NewReader(doc)); err == nil {
			t.Errorf("accepted %q", doc)
		}
	}
}

func TestWriteParams(t *testing.T) {
	var buf bytes.Buffer
	err := Write("params", &buf, []worth.RodParams{{
		Rod: "shim", TotalWorth: 2.5, MaxDiffPerPercent: 0.04,
		MaxDiffPerInch: 0.267, AdditionRate: 0.049, MaxMotorSpeed: 35.9,
	}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "rod,worth ($),") {
		t.Errorf("header missing: %q", out)
	}
	if !strings.Contains(out, "shim,2.5,0.04,0.267,0.049,35.9\n") {
		t.Errorf("row missing: %q", out)
	}
}

func TestWriteUnknownSurface(t *testing.T) {
	if err := Write("nope", &bytes.Buffer{}, nil); err == nil {
		t.Error("unknown surface accepted")
	}
}
