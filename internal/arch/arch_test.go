// ./internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

// The calibration core stays pure and the leaf layers stay below the
// application wiring. Enforced from the import graph so a refactor
// cannot silently invert a layer.
func TestImportBoundaries(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	bans := map[string][]string{
		// rodcal-core packages must not reach back into the app module.
		"rodcal-core/": {"rodcal/"},
		"rodcal/internal/sweep": {
			"rodcal/internal/appcore", "rodcal/internal/app", "rodcal/internal/plotapp",
			"rodcal/internal/cli", "rodcal/internal/plotcli", "rodcal/cmd/",
		},
		"rodcal/internal/writers": {
			"rodcal/internal/appcore", "rodcal/internal/app", "rodcal/internal/plotapp",
			"rodcal/internal/cli", "rodcal/internal/plotcli",
			"rodcal/internal/sweep", "rodcal/cmd/",
		},
		"rodcal/internal/plotting": {
			"rodcal/internal/appcore", "rodcal/internal/app", "rodcal/internal/plotapp",
			"rodcal/internal/cli", "rodcal/internal/plotcli",
			"rodcal/internal/sweep", "rodcal/cmd/",
		},
		"rodcal/internal/config": {
			"rodcal/internal/appcore", "rodcal/internal/app", "rodcal/internal/plotapp",
			"rodcal/internal/sweep", "rodcal/cmd/",
		},
		"rodcal/pkg/api": {"rodcal/internal/", "rodcal/cmd/", "rodcal-core/"},
	}

	var violations []string
	for {
		var p pkg
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(p.ImportPath, "rodcal/") && !strings.HasPrefix(p.ImportPath, "rodcal-core/") {
			continue
		}
		imp := p.ImportPath
		for prefix, forbidden := range bans {
			if !strings.HasPrefix(imp, prefix) {
				continue
			}
			for _, dep := range p.Imports {
				for _, banned := range forbidden {
					if strings.HasPrefix(dep, banned) {
						violations = append(violations, imp+" -> "+dep)
					}
				}
			}
		}
	}
	if len(violations) > 0 {
		t.Fatalf("layering violations:\n  %s", strings.Join(violations, "\n  "))
	}
}
