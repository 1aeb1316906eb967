// Package config defines the tunable limits and defaults consumed by the
// query builder, and loads them from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML may spell timeouts either as a
// duration string ("5s", "250ms") or as a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration value")
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Limits holds ceilings enforced while a query is being built.
// A zero value means "unlimited" for that dimension, so the zero Limits
// preserves unrestricted building.
type Limits struct {
	// MaxPredicates caps the number of predicates added to one builder.
	MaxPredicates int `yaml:"max_predicates"`

	// MaxPredicateDepth caps the nesting depth of composed predicates.
	MaxPredicateDepth int `yaml:"max_predicate_depth"`

	// MaxInListSize caps the number of values in one IN list.
	MaxInListSize int `yaml:"max_in_list_size"`

	// MaxPageSize caps the page size accepted by Page and Limit.
	MaxPageSize int `yaml:"max_page_size"`
}

// Variants switches individual predicate variants on or off. Disabled
// variants fail at the builder call that would create them.
type Variants struct {
	Simple         bool `yaml:"simple"`
	In             bool `yaml:"in"`
	Like           bool `yaml:"like"`
	Between        bool `yaml:"between"`
	Null           bool `yaml:"null"`
	Having         bool `yaml:"having"`
	CustomFunction bool `yaml:"custom_function"`
	Logical        bool `yaml:"logical"`
	Subquery       bool `yaml:"subquery"`
}

// Config carries builder defaults and limits. It is plain data: the query
// package enforces it, this package only declares and loads it.
type Config struct {
	// DefaultTimeout is the statement timeout handed to the downstream
	// executor when the caller sets none. Opaque at the builder layer.
	DefaultTimeout Duration `yaml:"default_timeout"`

	// DefaultPageSize is the page size used when pagination is requested
	// without an explicit size.
	DefaultPageSize int `yaml:"default_page_size"`

	// DetectParamCollisions makes explicit Parameter bindings fail when
	// they would shadow a name already bound in the query.
	DetectParamCollisions bool `yaml:"detect_param_collisions"`

	Limits   Limits   `yaml:"limits"`
	Variants Variants `yaml:"variants"`
}

// Default returns the permissive configuration: every variant enabled,
// no ceilings, 30s timeout, 20-row pages.
func Default() Config {
	return Config{
		DefaultTimeout:        Duration(30 * time.Second),
		DefaultPageSize:       20,
		DetectParamCollisions: false,
		Variants: Variants{
			Simple:         true,
			In:             true,
			Like:           true,
			Between:        true,
			Null:           true,
			Having:         true,
			CustomFunction: true,
			Logical:        true,
			Subquery:       true,
		},
	}
}

// Load reads a YAML config file and overlays it on Default, so fields the
// file omits keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes over the default configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if node.Kind == 0 {
		// Empty document - keep defaults
		return cfg, nil
	}
	if err := node.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must not be negative: %s", c.DefaultTimeout.Std())
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be at least 1: %d", c.DefaultPageSize)
	}
	for name, v := range map[string]int{
		"max_predicates":      c.Limits.MaxPredicates,
		"max_predicate_depth": c.Limits.MaxPredicateDepth,
		"max_in_list_size":    c.Limits.MaxInListSize,
		"max_page_size":       c.Limits.MaxPageSize,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative: %d", name, v)
		}
	}
	return nil
}
