// internal/writers/params.go
package writers

import (
	"encoding/csv"
	"fmt"
	"io"

	"rodcal-core/worth"
)

func init() {
	Register("params", writeParams)
}

// Column headings follow the facility's calibration report wording.
var paramHeader = []string{
	"rod",
	"worth ($)",
	"max worth added per % height ($/%)",
	"max worth added per height ($/in)",
	"reactivity addition rate ($/sec)",
	"max motor speed (in/min)",
}

func writeParams(w io.Writer, payload interface{}) error {
	rows, ok := payload.([]worth.RodParams)
	if !ok {
		return fmt.Errorf("params writer: unexpected payload %T", payload)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(paramHeader); err != nil {
		return err
	}
	for _, p := range rows {
		rec := []string{
			p.Rod,
			num(p.TotalWorth),
			num(p.MaxDiffPerPercent),
			num(p.MaxDiffPerInch),
			num(p.AdditionRate),
			num(p.MaxMotorSpeed),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
