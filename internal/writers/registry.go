// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"os"
)

// Named writer registry (surface → handler); table.go and params.go
// register themselves in init().
var csvWriters = map[string]func(w io.Writer, payload interface{}) error{}

// Register installs a writer for a named surface (idempotent last-wins).
func Register(name string, fn func(io.Writer, interface{}) error) { csvWriters[name] = fn }

// Write dispatches a payload to the named writer.
func Write(name string, w io.Writer, payload interface{}) error {
	fn, ok := csvWriters[name]
	if !ok {
		return fmt.Errorf("unknown output surface %q (no writer registered)", name)
	}
	return fn(w, payload)
}

// WriteFile writes a named surface to path.
func WriteFile(name, path string, payload interface{}) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	werr := Write(name, fh, payload)
	cerr := fh.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
