// core/deck/edit.go
package deck

import (
	"fmt"
	"math"
	"strconv"
)

// Edit returns a copy of the deck with the named rod moved to the given
// withdrawal percentage. Only that rod's surface-card z-coordinates and
// its region header change; every other line keeps its original bytes.
//
// The transform is pure and idempotent: each surface card records its 0%
// base coordinate, so the new value is always base + height*coefficient
// regardless of the deck's current position.
func (d *Deck) Edit(rodName string, heightPercent float64) (*Deck, error) {
	rod, ok := d.rods[rodName]
	if !ok {
		return nil, fmt.Errorf("%w: rod %q not configured", ErrMarkerNotFound, rodName)
	}
	if heightPercent < 0 || heightPercent > 100 {
		return nil, fmt.Errorf("height %v%% outside [0,100] (rod %s)", heightPercent, rodName)
	}

	nd := d.clone()
	edited := 0
	for i := range nd.Lines {
		l := &nd.Lines[i]
		if l.Rod != rodName {
			continue
		}
		switch l.Kind {
		case KindSurface:
			z := l.BaseZ + heightPercent*rod.CMPerPercent
			s := formatZ(z, l.zDec)
			l.Text = l.Text[:l.zStart] + s + l.Text[l.zEnd:]
			l.zEnd = l.zStart + len(s)
			l.zDec = decimals(s)
			edited++
		case KindMarkerStart:
			// Region headers in the facility convention encode the
			// withdrawal percentage; rewrite it so the generated deck
			// documents its own position. Custom markers without a
			// percentage stay untouched.
			if withdrawnRe.MatchString(l.Text) {
				l.Text = withdrawnRe.ReplaceAllString(l.Text,
					fmt.Sprintf("(%s%% withdrawn)", trimFloat(heightPercent)))
			}
		}
	}
	if edited == 0 {
		return nil, fmt.Errorf("%w: prefix %q (rod %s)", ErrNoMatchingSurface, rod.SurfacePrefix, rodName)
	}
	nd.heights[rodName] = heightPercent
	return nd, nil
}

// formatZ renders a z-coordinate with the original card's decimal
// precision, widening up to 5 places when the shifted value would
// otherwise lose accuracy.
func formatZ(v float64, dec int) string {
	if dec < 1 {
		dec = 1
	}
	maxDec := dec
	if maxDec < 5 {
		maxDec = 5
	}
	for d := dec; d <= maxDec; d++ {
		s := strconv.FormatFloat(v, 'f', d, 64)
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && math.Abs(f-v) < 5e-7 {
			return s
		}
	}
	return strconv.FormatFloat(v, 'f', 5, 64)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
