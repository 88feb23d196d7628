// internal/writers/table.go
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"rodcal-core/worth"
)

// Cell is one (value, uncertainty) pair in a per-rod column.
type Cell struct {
	Val float64
	Unc float64
}

// Table is the keff/rho exchange surface: heights down the side, a
// value and an uncertainty column per rod. The CSV form is
//
//	height,safe,safe unc,shim,shim unc,...
//
// and is identical whether the samples came from live parsed runs or
// from an operator-supplied file.
type Table struct {
	Rods  []string
	cells map[string]map[float64]Cell
}

func NewTable(rods []string) *Table {
	return &Table{Rods: rods, cells: make(map[string]map[float64]Cell, len(rods))}
}

// Set records a value; NaN marks the sample missing and is skipped.
func (t *Table) Set(rod string, height, val, unc float64) {
	if math.IsNaN(val) {
		return
	}
	m := t.cells[rod]
	if m == nil {
		m = make(map[float64]Cell)
		t.cells[rod] = m
	}
	m[height] = Cell{Val: val, Unc: unc}
}

// Get reports the cell for (rod, height) and whether it is present.
func (t *Table) Get(rod string, height float64) (Cell, bool) {
	c, ok := t.cells[rod][height]
	return c, ok
}

// Heights returns every height present in any column, ascending.
func (t *Table) Heights() []float64 {
	set := map[float64]bool{}
	for _, m := range t.cells {
		for h := range m {
			set[h] = true
		}
	}
	hs := make([]float64, 0, len(set))
	for h := range set {
		hs = append(hs, h)
	}
	sort.Float64s(hs)
	return hs
}

// Samples adapts one rod's column to the converter's input.
func (t *Table) Samples(rod string) []worth.Sample {
	m := t.cells[rod]
	out := make([]worth.Sample, 0, len(m))
	for h, c := range m {
		out = append(out, worth.Sample{Height: h, Keff: c.Val, Unc: c.Unc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// SetPoints fills one rod's column from converted reactivity points.
func (t *Table) SetPoints(rod string, pts []worth.Point) {
	for _, p := range pts {
		t.Set(rod, p.Height, p.Rho, p.Unc)
	}
}

func init() {
	Register("keff", writeTable)
	Register("rho", writeTable)
}

func writeTable(w io.Writer, payload interface{}) error {
	t, ok := payload.(*Table)
	if !ok {
		return fmt.Errorf("table writer: unexpected payload %T", payload)
	}
	cw := csv.NewWriter(w)
	header := []string{"height"}
	for _, rod := range t.Rods {
		header = append(header, rod, rod+" unc")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, h := range t.Heights() {
		row := []string{num(h)}
		for _, rod := range t.Rods {
			if c, ok := t.Get(rod, h); ok {
				row = append(row, num(c.Val), num(c.Unc))
			} else {
				row = append(row, "", "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// LoadTable reads a keff-style CSV back into a Table. Column order
// defines rod order; every rod column must be paired with "<rod> unc".
// Blank cells mean the sample is missing, not zero.
func LoadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	header := rows[0]
	if len(header) < 3 || strings.TrimSpace(header[0]) != "height" {
		return nil, fmt.Errorf("first column must be %q", "height")
	}
	var rods []string
	col := map[int]string{} // value-column index -> rod
	for i := 1; i < len(header); i++ {
		name := strings.TrimSpace(header[i])
		if strings.HasSuffix(name, " unc") {
			continue
		}
		if i+1 >= len(header) || strings.TrimSpace(header[i+1]) != name+" unc" {
			return nil, fmt.Errorf("column %q lacks a %q companion", name, name+" unc")
		}
		rods = append(rods, name)
		col[i] = name
	}
	t := NewTable(rods)
	for ln, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad height %q", ln+2, row[0])
		}
		for i, rod := range col {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			val, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s value %q", ln+2, rod, row[i])
			}
			unc := 0.0
			if i+1 < len(row) && strings.TrimSpace(row[i+1]) != "" {
				unc, err = strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: bad %s unc %q", ln+2, rod, row[i+1])
				}
			}
			t.Set(rod, h, val, unc)
		}
	}
	return t, nil
}

// LoadTableFile reads a table CSV from path.
func LoadTableFile(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return LoadTable(fh)
}
