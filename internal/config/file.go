// Package config holds the server configuration and the typed parameter
// sets checked at the tool boundary before any pixels are touched.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "IMAGE_OVERLAY_MCP_CONFIG"
	EnvLogLevel   = "IMAGE_OVERLAY_MCP_LOG_LEVEL"
)

// Config is the top-level server configuration.
type Config struct {
	LogLevel string      `yaml:"log_level"` // debug | info
	Defaults Defaults    `yaml:"defaults"`
	Cache    CacheConfig `yaml:"cache"`
}

// Defaults fill tool arguments the caller leaves out.
type Defaults struct {
	Scale        float64  `yaml:"scale"`
	Opacity      *float64 `yaml:"opacity"` // 0 is a valid opacity, so unset is nil
	BlendMode    string   `yaml:"blend_mode"`
	PointColor   string   `yaml:"point_color"`
	PointSize    int      `yaml:"point_size"`
	OutputFormat string   `yaml:"output_format"` // png | jpg | jpeg | webp
	Placement    string   `yaml:"placement"`     // clip | clamp
}

// CacheConfig controls the decoded image cache.
type CacheConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads the file named by IMAGE_OVERLAY_MCP_CONFIG, or the defaults
// when it is unset, then applies IMAGE_OVERLAY_MCP_LOG_LEVEL.
func Load() (*Config, error) {
	return LoadPath(os.Getenv(EnvConfigPath))
}

// LoadPath is Load with an explicit file path; an empty path means defaults.
func LoadPath(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = strings.ToLower(lvl)
		if err := validLogLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	d := &c.Defaults
	if d.Scale == 0 {
		d.Scale = 1
	}
	if d.Opacity == nil {
		one := 1.0
		d.Opacity = &one
	}
	if d.BlendMode == "" {
		d.BlendMode = "normal"
	}
	if d.PointColor == "" {
		d.PointColor = "red"
	}
	if d.PointSize == 0 {
		d.PointSize = 10
	}
	if d.OutputFormat == "" {
		d.OutputFormat = "png"
	}
	if d.Placement == "" {
		d.Placement = "clip"
	}

	if c.Cache.Enabled == nil {
		on := true
		c.Cache.Enabled = &on
	}
}

// Validate checks the defaults against the same domains as tool arguments.
func (c *Config) Validate() error {
	var errs []error
	if err := validLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.Defaults.Overlay().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Defaults.Marker().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Defaults.OutputFormat {
	case "png", "jpg", "jpeg", "webp":
	default:
		errs = append(errs, fmt.Errorf("output_format %q: want png, jpg, jpeg or webp", c.Defaults.OutputFormat))
	}
	switch c.Defaults.Placement {
	case "clip", "clamp":
	default:
		errs = append(errs, fmt.Errorf("placement %q: want clip or clamp", c.Defaults.Placement))
	}
	return errors.Join(errs...)
}

// Debug reports whether debug logging is on.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// CacheEnabled reports whether decoded images are kept between calls.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

func validLogLevel(lvl string) error {
	switch lvl {
	case "debug", "info":
		return nil
	}
	return fmt.Errorf("log_level %q: want debug or info", lvl)
}

// Overlay returns the overlay defaults as boundary parameters.
func (d Defaults) Overlay() OverlayParams {
	op := 1.0
	if d.Opacity != nil {
		op = *d.Opacity
	}
	return OverlayParams{
		Scale:     d.Scale,
		Opacity:   op,
		BlendMode: d.BlendMode,
	}
}

// Marker returns the marker defaults as boundary parameters.
func (d Defaults) Marker() MarkerParams {
	return MarkerParams{Color: d.PointColor, Size: d.PointSize}
}
