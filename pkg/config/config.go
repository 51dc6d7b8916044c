// Package config provides configuration loading and management for cellratios.
// It handles loading the experiment description from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cellratios/internal/models"
)

// Config represents the experiment configuration loaded from YAML
type Config struct {
	// Experiment is the experiment name used in output file names and titles
	Experiment string `yaml:"experiment"`

	// RegionName labels the analysed brain area in output names (e.g. mPFC)
	RegionName string `yaml:"regionName"`

	// Tracer is the tracer the ratios are reported for. Empty means a
	// cFos-only acquisition.
	Tracer string `yaml:"tracer"`

	// Tracers lists every tracer scored in the slices. It decides which
	// formula converts raw counts. Defaults to [Tracer].
	Tracers []string `yaml:"tracers,omitempty"`

	// Input is the directory holding one count file per slice
	Input string `yaml:"input"`

	// Output is the directory receiving the result files
	Output string `yaml:"output"`

	// Groups assigns animal identifiers to experimental groups
	Groups struct {
		Recall     []string `yaml:"recall"`
		Extinction []string `yaml:"extinction"`
		Control    []string `yaml:"control"`
	} `yaml:"groups"`

	// Thresholds gate which slices enter the ratio averages
	Thresholds struct {
		// Aggregate applies to the regions listed in AggregateRegions
		Aggregate float64 `yaml:"aggregate"`

		// SingleRegion applies to every other region
		SingleRegion float64 `yaml:"singleRegion"`

		// AggregateRegions names the composite regions using the stricter threshold
		AggregateRegions []string `yaml:"aggregateRegions"`
	} `yaml:"thresholds"`

	// Regions maps composite regions to the subregions they sum, in order
	Regions RegionMap `yaml:"regions"`

	// SQLite is an optional database path that receives a copy of the results
	SQLite string `yaml:"sqlite,omitempty"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Experiment = "experiment"
	cfg.RegionName = "mPFC"
	cfg.Tracer = string(models.TracerBLA)
	cfg.Input = "cell_counts"
	cfg.Output = "ratios"

	cfg.Groups.Recall = []string{}
	cfg.Groups.Extinction = []string{}
	cfg.Groups.Control = []string{}

	// Only consider regions with at least this many traced cells
	cfg.Thresholds.Aggregate = 5
	cfg.Thresholds.SingleRegion = 4
	cfg.Thresholds.AggregateRegions = []string{}

	cfg.Regions = RegionMap{
		{Name: "IL", Subregions: []string{"IL23", "IL5", "IL6"}},
		{Name: "PL", Subregions: []string{"PL23", "PL5", "PL6"}},
		{Name: "AC", Subregions: []string{"AC23", "AC5", "AC6"}},
	}

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// AnalysisTracer returns the tracer the ratios are computed for
func (c *Config) AnalysisTracer() (models.Tracer, error) {
	return models.ParseTracer(c.Tracer)
}

// TracerList returns the scored tracers, falling back to the analysis tracer
func (c *Config) TracerList() ([]models.Tracer, error) {
	names := c.Tracers
	if len(names) == 0 && c.Tracer != "" {
		names = []string{c.Tracer}
	}

	tracers := make([]models.Tracer, 0, len(names))
	for _, n := range names {
		t, err := models.ParseTracer(n)
		if err != nil {
			return nil, err
		}
		if t != models.NoTracer {
			tracers = append(tracers, t)
		}
	}
	return tracers, nil
}

// Mode returns the acquisition mode implied by the scored tracers
func (c *Config) Mode() (models.AcquisitionMode, error) {
	tracers, err := c.TracerList()
	if err != nil {
		return models.Single, err
	}
	return models.ModeFor(tracers), nil
}

// Animals returns every configured animal in group order: recall, extinction, control
func (c *Config) Animals() []string {
	var out []string
	out = append(out, c.Groups.Recall...)
	out = append(out, c.Groups.Extinction...)
	out = append(out, c.Groups.Control...)
	return out
}

// GroupOf returns the group name of an animal, or "" when unassigned
func (c *Config) GroupOf(animal string) string {
	for _, g := range c.GroupNames() {
		for _, a := range c.GroupMembers(g) {
			if a == animal {
				return g
			}
		}
	}
	return ""
}

// GroupNames returns the group names in reporting order
func (c *Config) GroupNames() []string {
	return []string{"Recall", "Extinction", "Control"}
}

// GroupMembers returns the animals of a named group
func (c *Config) GroupMembers(group string) []string {
	switch group {
	case "Recall":
		return c.Groups.Recall
	case "Extinction":
		return c.Groups.Extinction
	case "Control":
		return c.Groups.Control
	}
	return nil
}

// ThresholdFor returns the traced-cell threshold of a composite region
func (c *Config) ThresholdFor(region string) float64 {
	for _, r := range c.Thresholds.AggregateRegions {
		if r == region {
			return c.Thresholds.Aggregate
		}
	}
	return c.Thresholds.SingleRegion
}

// Validate checks the configuration for inconsistencies that would make the
// analysis meaningless. It does not touch the filesystem.
func (c *Config) Validate() error {
	tracer, err := c.AnalysisTracer()
	if err != nil {
		return err
	}

	tracers, err := c.TracerList()
	if err != nil {
		return err
	}
	if tracer != models.NoTracer {
		found := false
		for _, t := range tracers {
			if t == tracer {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("tracer %q is not among the scored tracers %v", tracer, c.Tracers)
		}
	}

	if c.Input == "" {
		return fmt.Errorf("no input directory configured")
	}

	if len(c.Regions) == 0 {
		return fmt.Errorf("no composite regions configured")
	}
	if err := c.Regions.Validate(); err != nil {
		return err
	}
	for _, r := range c.Thresholds.AggregateRegions {
		if _, ok := c.Regions.Get(r); !ok {
			return fmt.Errorf("aggregate threshold region %q is not a configured composite region", r)
		}
	}

	if c.Thresholds.Aggregate < 0 || c.Thresholds.SingleRegion < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}

	seen := make(map[string]string)
	for _, g := range c.GroupNames() {
		for _, a := range c.GroupMembers(g) {
			if prev, ok := seen[a]; ok {
				return fmt.Errorf("animal %q is listed in both %s and %s", a, prev, g)
			}
			seen[a] = g
		}
	}

	return nil
}
