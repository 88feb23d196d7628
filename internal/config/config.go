// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"rodcal-core/deck"
)

// Config is the facility description: everything site-specific lives
// here so moving to another reactor is a data change, not a code
// change.
type Config struct {
	Facility string `yaml:"facility"`

	// CMPerPercent is the default axial travel per percent withdrawal;
	// rods may override it individually.
	CMPerPercent float64 `yaml:"cm_per_percent"`

	// BetaEff is the effective delayed neutron fraction used for
	// dollar conversions.
	BetaEff float64 `yaml:"beta_eff"`

	// RateLimit is the licensed reactivity addition limit, $/s.
	RateLimit float64 `yaml:"rate_limit_dollars_per_sec"`

	Heights   Heights   `yaml:"heights"`
	Rods      []Rod     `yaml:"rods"`
	Simulator Simulator `yaml:"simulator"`
	Paths     Paths     `yaml:"paths"`
}

// Rod configures one control rod. Marker strings left empty fall back
// to the facility convention "<Rod> Rod (" / "End of <Rod> Rod".
type Rod struct {
	Name          string  `yaml:"name"`
	StartMarker   string  `yaml:"start_marker,omitempty"`
	EndMarker     string  `yaml:"end_marker,omitempty"`
	SurfacePrefix string  `yaml:"surface_prefix"`
	CMPerPercent  float64 `yaml:"cm_per_percent,omitempty"`
	MotorSpeed    float64 `yaml:"motor_speed_in_per_min"`
}

// Heights is the sweep range in integer percent withdrawal.
type Heights struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
	Step  int `yaml:"step"`
}

// Simulator is the external tool invocation. Args may carry the
// placeholders {input}, {output}, {output_stem} and {tasks}.
type Simulator struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Paths struct {
	Inputs  string `yaml:"inputs"`
	Outputs string `yaml:"outputs"`
}

// Default reproduces the source facility: a TRIGA with safe/shim/reg
// rods on 38 cm of travel, surfaces numbered 8xxxxx.
func Default() *Config {
	return &Config{
		Facility:     "reed",
		CMPerPercent: 0.38,
		BetaEff:      0.0075,
		RateLimit:    0.16,
		Heights:      Heights{Start: 0, Stop: 100, Step: 5},
		Rods: []Rod{
			{Name: "safe", SurfacePrefix: "8", MotorSpeed: 19},
			{Name: "shim", SurfacePrefix: "8", MotorSpeed: 11},
			{Name: "reg", SurfacePrefix: "8", MotorSpeed: 24},
		},
		Simulator: Simulator{
			Command: "mcnp6",
			Args:    []string{"i={input}", "n={output_stem}.", "tasks", "{tasks}"},
		},
		Paths: Paths{Inputs: "inputs", Outputs: "outputs"},
	}
}

// Load reads a facility file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Rods) == 0 {
		return fmt.Errorf("no rods configured")
	}
	seen := map[string]bool{}
	for _, r := range c.Rods {
		if r.Name == "" {
			return fmt.Errorf("rod with empty name")
		}
		if r.Name != strings.ToLower(r.Name) {
			return fmt.Errorf("rod name %q must be lowercase", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rod %q", r.Name)
		}
		seen[r.Name] = true
		if r.SurfacePrefix == "" {
			return fmt.Errorf("rod %q: surface_prefix is required", r.Name)
		}
		if c.coefficient(r) <= 0 {
			return fmt.Errorf("rod %q: cm_per_percent must be > 0", r.Name)
		}
	}
	h := c.Heights
	if h.Step <= 0 {
		return fmt.Errorf("heights.step must be > 0")
	}
	if h.Start < 0 || h.Stop > 100 || h.Start >= h.Stop {
		return fmt.Errorf("heights %d..%d outside 0..100", h.Start, h.Stop)
	}
	if c.BetaEff <= 0 {
		return fmt.Errorf("beta_eff must be > 0")
	}
	if c.Simulator.Command == "" {
		return fmt.Errorf("simulator.command is required")
	}
	return nil
}

func (c *Config) coefficient(r Rod) float64 {
	if r.CMPerPercent > 0 {
		return r.CMPerPercent
	}
	return c.CMPerPercent
}

// Coefficient is the axial travel per percent withdrawal for the named
// rod, falling back to the facility default for unknown names.
func (c *Config) Coefficient(rod string) float64 {
	for _, r := range c.Rods {
		if r.Name == rod {
			return c.coefficient(r)
		}
	}
	return c.CMPerPercent
}

// HeightList enumerates the sweep heights, always including Stop.
func (c *Config) HeightList() []int {
	var hs []int
	for h := c.Heights.Start; h < c.Heights.Stop; h += c.Heights.Step {
		hs = append(hs, h)
	}
	return append(hs, c.Heights.Stop)
}

// RodNames returns the configured rod names in order.
func (c *Config) RodNames() []string {
	names := make([]string, len(c.Rods))
	for i, r := range c.Rods {
		names[i] = r.Name
	}
	return names
}

// MotorSpeeds maps rod name to drive speed in inches per minute.
func (c *Config) MotorSpeeds() map[string]float64 {
	m := make(map[string]float64, len(c.Rods))
	for _, r := range c.Rods {
		m[r.Name] = r.MotorSpeed
	}
	return m
}

// DeckRods adapts the configuration to the deck editor's rod type.
func (c *Config) DeckRods() []deck.Rod {
	rods := make([]deck.Rod, len(c.Rods))
	for i, r := range c.Rods {
		rods[i] = deck.Rod{
			Name:          r.Name,
			StartMarker:   r.StartMarker,
			EndMarker:     r.EndMarker,
			SurfacePrefix: r.SurfacePrefix,
			CMPerPercent:  c.coefficient(r),
		}.DefaultMarkers()
	}
	return rods
}

// Keep retains only the named rods, preserving configuration order.
func (c *Config) Keep(names []string) error {
	if len(names) == 0 {
		return nil
	}
	want := map[string]bool{}
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var kept []Rod
	for _, r := range c.Rods {
		if want[r.Name] {
			kept = append(kept, r)
			delete(want, r.Name)
		}
	}
	for n := range want {
		return fmt.Errorf("rod %q not in facility config", n)
	}
	c.Rods = kept
	return nil
}
