// internal/sweep/cache.go
package sweep

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Key identifies one sample of the sweep.
type Key struct {
	Rod    string
	Height int // percent withdrawn
}

func (k Key) String() string { return fmt.Sprintf("%s/%03d", k.Rod, k.Height) }

// DeckName is the deterministic input deck file name for this sample.
func (k Key) DeckName() string { return fmt.Sprintf("rc-%s-%03d.i", k.Rod, k.Height) }

// OutputName is the paired output listing name the simulator produces.
func (k Key) OutputName() string { return fmt.Sprintf("o_rc-%s-%03d.o", k.Rod, k.Height) }

// TemplateHash fingerprints the template deck for cache keying.
func TemplateHash(template []byte) string {
	sum := sha256.Sum256(template)
	return hex.EncodeToString(sum[:])
}

const manifestName = "rodcal-manifest.json"

// Cache decides whether a sample's output can be reused. The cache key
// is (rod, height, template hash): an output recorded under a different
// template hash is stale and triggers a rerun. An output present on
// disk but absent from the manifest is honored as operator-supplied,
// matching the plain file-presence check this replaces.
type Cache struct {
	dir     string
	entries map[string]string // output name -> template hash
}

// OpenCache loads the manifest in dir, creating the directory first.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	c := &Cache{dir: dir, entries: map[string]string{}}
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache manifest: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing cache manifest: %w", err)
	}
	return c, nil
}

// Status classifies a lookup.
type Status int

const (
	Miss  Status = iota // no usable output; run the tool
	Hit                 // output reusable
	Stale               // output from a different template; rerun
)

// Lookup returns the sample's output path and its cache status under
// the given template hash.
func (c *Cache) Lookup(key Key, templateHash string) (string, Status) {
	path := filepath.Join(c.dir, key.OutputName())
	if _, err := os.Stat(path); err != nil {
		return path, Miss
	}
	if recorded, ok := c.entries[key.OutputName()]; ok && recorded != templateHash {
		return path, Stale
	}
	return path, Hit
}

// Record marks the sample's output as produced from the given template
// and persists the manifest.
func (c *Cache) Record(key Key, templateHash string) error {
	c.entries[key.OutputName()] = templateHash
	return c.persist()
}

// Invalidate deletes a stale output and its manifest entry so a rerun
// starts clean. The tool refuses to write over an existing listing, so
// leaving the file in place would fail every regeneration.
func (c *Cache) Invalidate(key Key) error {
	if err := os.Remove(filepath.Join(c.dir, key.OutputName())); err != nil && !os.IsNotExist(err) {
		return err
	}
	if _, ok := c.entries[key.OutputName()]; !ok {
		return nil
	}
	delete(c.entries, key.OutputName())
	return c.persist()
}

func (c *Cache) persist() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(c.dir, manifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(c.dir, manifestName))
}
