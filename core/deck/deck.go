// core/deck/deck.go
package deck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Configuration errors. Both indicate a systematic mismatch between the
// rod configuration and the template, so callers abort the whole sweep
// rather than skipping a sample.
var (
	ErrMarkerNotFound    = errors.New("rod marker not found")
	ErrNoMatchingSurface = errors.New("no surface cards matched inside rod region")
)

// Kind classifies a single deck line.
type Kind int

const (
	KindOther Kind = iota
	KindMarkerStart
	KindMarkerEnd
	KindSurface
)

// Rod describes how to locate and edit one control rod inside a deck.
// Marker strings must each occur exactly once in the template.
type Rod struct {
	Name          string  // lowercase identifier, e.g. "shim"
	StartMarker   string  // substring opening the rod's region
	EndMarker     string  // substring closing the rod's region
	SurfacePrefix string  // first-token prefix of the rod's surface cards
	CMPerPercent  float64 // axial displacement per percent withdrawal
}

// DefaultMarkers fills in the source facility's marker convention for
// any rod that doesn't set its own: "<Rod> Rod (" / "End of <Rod> Rod".
// The open parenthesis keeps the start marker matching after the header
// line has been rewritten with a new withdrawal percentage.
func (r Rod) DefaultMarkers() Rod {
	title := titleCase(r.Name)
	if r.StartMarker == "" {
		r.StartMarker = title + " Rod ("
	}
	if r.EndMarker == "" {
		r.EndMarker = "End of " + title + " Rod"
	}
	return r
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Line is one parsed deck line. Text carries the original bytes without
// the trailing newline; untouched lines serialize back byte-identical.
type Line struct {
	Kind Kind
	Rod  string // set for marker and surface lines
	Text string

	// Surface-card fields, valid when Kind == KindSurface.
	Mnemonic string  // "pz" or "k/z"
	BaseZ    float64 // z-coordinate normalized to 0% withdrawal
	zStart   int     // byte offset of the z token within Text
	zEnd     int
	zDec     int // decimal places of the original z token
}

// Deck is a template parsed into typed records, ready for editing.
type Deck struct {
	Lines   []Line
	rods    map[string]Rod
	heights map[string]float64 // current withdrawal percent per rod
}

var withdrawnRe = regexp.MustCompile(`\((\d+(?:\.\d+)?)%\s*[Ww]ithdrawn\)`)

// Parse reads a template deck and locates every configured rod's
// marker-delimited region, classifying the surface cards inside it.
// It fails with ErrMarkerNotFound if any rod's markers are absent or
// unbalanced, and with ErrNoMatchingSurface if a located region holds
// no card matching the rod's surface prefix.
func Parse(r io.Reader, rods []Rod) (*Deck, error) {
	d := &Deck{
		rods:    make(map[string]Rod, len(rods)),
		heights: make(map[string]float64, len(rods)),
	}
	for _, rod := range rods {
		d.rods[rod.Name] = rod.DefaultMarkers()
	}

	var inside string // name of the rod whose region we are in, or ""
	surfaces := make(map[string]int, len(rods))

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	ln := 0
	for sc.Scan() {
		ln++
		text := sc.Text()
		line := Line{Kind: KindOther, Text: text}

		if inside == "" {
			for name, rod := range d.rods {
				if !strings.Contains(text, rod.StartMarker) {
					continue
				}
				if _, seen := d.heights[name]; seen {
					return nil, fmt.Errorf("%w: duplicate start marker %q at line %d", ErrMarkerNotFound, rod.StartMarker, ln)
				}
				inside = name
				line.Kind = KindMarkerStart
				line.Rod = name
				d.heights[name] = markerHeight(text)
				break
			}
			if line.Kind == KindOther {
				for name, rod := range d.rods {
					if _, seen := d.heights[name]; seen {
						continue
					}
					if strings.Contains(text, rod.EndMarker) {
						return nil, fmt.Errorf("%w: end marker %q at line %d precedes its start marker", ErrMarkerNotFound, rod.EndMarker, ln)
					}
				}
			}
		} else {
			rod := d.rods[inside]
			switch {
			case strings.Contains(text, rod.EndMarker):
				line.Kind = KindMarkerEnd
				line.Rod = inside
				inside = ""
			case isComment(text):
				// Comment lines inside the region pass through.
			default:
				if sl, ok := classifySurface(text, rod, d.heights[rod.Name]); ok {
					line = sl
					surfaces[rod.Name]++
				}
			}
		}
		d.Lines = append(d.Lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inside != "" {
		rod := d.rods[inside]
		return nil, fmt.Errorf("%w: end marker %q (rod %s)", ErrMarkerNotFound, rod.EndMarker, inside)
	}
	for name, rod := range d.rods {
		if _, ok := d.heights[name]; !ok {
			return nil, fmt.Errorf("%w: start marker %q (rod %s)", ErrMarkerNotFound, rod.StartMarker, name)
		}
		if surfaces[name] == 0 {
			return nil, fmt.Errorf("%w: prefix %q (rod %s)", ErrNoMatchingSurface, rod.SurfacePrefix, name)
		}
	}
	return d, nil
}

// markerHeight recovers the withdrawal percentage encoded in a marker
// line, e.g. "c Shim Rod (20% withdrawn)". Markers that carry no
// percentage denote the template's reference position, 0%.
func markerHeight(text string) float64 {
	m := withdrawnRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return h
}

func isComment(text string) bool {
	t := strings.TrimLeft(text, " ")
	return len(t) > 0 && (t[0] == 'c' || t[0] == 'C') &&
		(len(t) == 1 || t[1] == ' ' || t[1] == '\t')
}

// zTokenIndex maps the surface mnemonic to the token position of the
// axial coordinate in the external tool's card grammar.
func zTokenIndex(mnemonic string) int {
	switch mnemonic {
	case "pz":
		return 2
	case "k/z":
		return 4
	}
	return -1
}

// classifySurface decides whether a region line is one of the rod's
// surface cards and, if so, captures the z token's position and value.
// currentHeight is the region's withdrawal percentage, used to record
// the card's 0% base coordinate.
func classifySurface(text string, rod Rod, currentHeight float64) (Line, bool) {
	toks := tokenize(text)
	if len(toks) < 3 {
		return Line{}, false
	}
	if rod.SurfacePrefix != "" && !strings.HasPrefix(toks[0].s, rod.SurfacePrefix) {
		return Line{}, false
	}
	mnemonic := toks[1].s
	zi := zTokenIndex(mnemonic)
	if zi < 0 || zi >= len(toks) {
		return Line{}, false
	}
	z, err := strconv.ParseFloat(toks[zi].s, 64)
	if err != nil {
		return Line{}, false
	}
	return Line{
		Kind:     KindSurface,
		Rod:      rod.Name,
		Text:     text,
		Mnemonic: mnemonic,
		BaseZ:    z - currentHeight*rod.CMPerPercent,
		zStart:   toks[zi].start,
		zEnd:     toks[zi].end,
		zDec:     decimals(toks[zi].s),
	}, true
}

type token struct {
	s          string
	start, end int
}

// tokenize splits on whitespace while keeping byte offsets, so a single
// token can be rewritten in place without disturbing alignment.
func tokenize(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		if s[i] == ' ' || s[i] == '\t' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		toks = append(toks, token{s: s[i:j], start: i, end: j})
		i = j
	}
	return toks
}

func decimals(s string) int {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// Bytes serializes the deck, restoring each line's original bytes plus
// a trailing newline.
func (d *Deck) Bytes() []byte {
	var b strings.Builder
	for _, l := range d.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// WriteTo writes the serialized deck to w.
func (d *Deck) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Bytes())
	return int64(n), err
}

// Height reports the deck's current withdrawal percentage for a rod.
func (d *Deck) Height(rod string) (float64, bool) {
	h, ok := d.heights[rod]
	return h, ok
}

func (d *Deck) clone() *Deck {
	nd := &Deck{
		Lines:   make([]Line, len(d.Lines)),
		rods:    d.rods,
		heights: make(map[string]float64, len(d.heights)),
	}
	copy(nd.Lines, d.Lines)
	for k, v := range d.heights {
		nd.heights[k] = v
	}
	return nd
}
