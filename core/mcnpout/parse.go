// core/mcnpout/parse.go
package mcnpout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Result is the converged multiplication factor of one completed run.
type Result struct {
	Keff   float64
	StdDev float64
}

var (
	// ErrNoConvergedResult means the listing carries no final k(eff)
	// estimate: the run ended before convergence or was cut short.
	// Distinct from I/O errors, which pass through unwrapped.
	ErrNoConvergedResult = errors.New("no converged k(eff) estimate in output")

	// ErrMalformedOutput means the result banner is present but its
	// numeric fields do not parse.
	ErrMalformedOutput = errors.New("malformed k(eff) result")
)

var combinedRe = regexp.MustCompile(
	`final estimated combined k\(eff\)\s*=\s*(\S+)\s+with an estimated standard deviation of\s*(\S+)`)

// Parse scans a run's output listing for the converged k_eff and its
// standard deviation. Two banner forms are recognized: the "final
// estimated combined k(eff) = ..." sentence, and the estimated-average
// table whose "col/abs/trk len" row carries the combined estimate. The
// last occurrence wins, matching the tool's own final-result placement.
// Nothing else in the listing is interpreted.
func Parse(r io.Reader) (Result, error) {
	var (
		res       Result
		found     bool
		inTable   bool
		malformed error
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()

		if m := combinedRe.FindStringSubmatch(line); m != nil {
			k, err1 := strconv.ParseFloat(strings.TrimSuffix(m[1], ","), 64)
			u, err2 := strconv.ParseFloat(m[2], 64)
			if err1 != nil || err2 != nil {
				malformed = fmt.Errorf("%w: %q", ErrMalformedOutput, strings.TrimSpace(line))
				continue
			}
			res, found, malformed = Result{Keff: k, StdDev: u}, true, nil
			continue
		}

		if strings.HasPrefix(line, " the estimated average keffs") {
			inTable = true
			continue
		}
		if inTable && strings.HasPrefix(strings.TrimSpace(line), "col/abs/trk len") {
			f := strings.Fields(line)
			if len(f) < 4 {
				malformed = fmt.Errorf("%w: %q", ErrMalformedOutput, strings.TrimSpace(line))
				continue
			}
			k, err1 := strconv.ParseFloat(f[2], 64)
			u, err2 := strconv.ParseFloat(f[3], 64)
			if err1 != nil || err2 != nil {
				malformed = fmt.Errorf("%w: %q", ErrMalformedOutput, strings.TrimSpace(line))
				continue
			}
			res, found, malformed = Result{Keff: k, StdDev: u}, true, nil
			inTable = false
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, err
	}
	if malformed != nil {
		return Result{}, malformed
	}
	if !found {
		return Result{}, ErrNoConvergedResult
	}
	return res, nil
}

// ParseFile parses the listing at path.
func ParseFile(path string) (Result, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = fh.Close() }()
	return Parse(fh)
}
