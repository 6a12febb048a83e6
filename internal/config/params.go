package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/image-overlay-mcp/internal/blend"
	"github.com/ironsheep/image-overlay-mcp/internal/marker"
)

// ErrOutOfRange is wrapped by every range violation reported by Validate.
var ErrOutOfRange = errors.New("value out of range")

// Parameter domains.
const (
	MinScale    = 0.1 // exclusive
	MaxScale    = 10.0
	MinRotation = -360.0
	MaxRotation = 360.0
	MinOpacity  = 0.0
	MaxOpacity  = 1.0
)

// OverlayParams are the user-facing overlay settings before they reach the
// compositor.
type OverlayParams struct {
	Scale     float64 `yaml:"scale" json:"scale"`
	Rotation  float64 `yaml:"rotation" json:"rotation"`
	Opacity   float64 `yaml:"opacity" json:"opacity"`
	BlendMode string  `yaml:"blend_mode" json:"blend_mode"`
}

// Validate reports every numeric field outside its domain.
func (p OverlayParams) Validate() error {
	var errs []error
	if !(p.Scale > MinScale && p.Scale <= MaxScale) {
		errs = append(errs, rangeError("scale", p.Scale, "(0.1, 10]"))
	}
	if !(p.Rotation >= MinRotation && p.Rotation <= MaxRotation) {
		errs = append(errs, rangeError("rotation", p.Rotation, "[-360, 360]"))
	}
	if !(p.Opacity >= MinOpacity && p.Opacity <= MaxOpacity) {
		errs = append(errs, rangeError("opacity", p.Opacity, "[0, 1]"))
	}
	return errors.Join(errs...)
}

// Mode returns the blend mode, normal for unknown names.
func (p OverlayParams) Mode() blend.Mode {
	m, _ := blend.ParseMode(p.BlendMode)
	return m
}

// Normalize replaces an unknown blend mode with normal. It reports whether
// a substitution was made.
func (p *OverlayParams) Normalize() bool {
	m, ok := blend.ParseMode(p.BlendMode)
	p.BlendMode = string(m)
	return !ok
}

// MarkerParams are the marker settings for the coordinate tools.
type MarkerParams struct {
	Color string `yaml:"point_color" json:"point_color"`
	Size  int    `yaml:"point_size" json:"point_size"`
}

// Validate checks the marker size.
func (p MarkerParams) Validate() error {
	if p.Size < marker.MinSize || p.Size > marker.MaxSize {
		return fmt.Errorf("point_size %d not in [%d, %d]: %w", p.Size, marker.MinSize, marker.MaxSize, ErrOutOfRange)
	}
	return nil
}

// MarkerColor returns the colour, red for unknown names.
func (p MarkerParams) MarkerColor() marker.Color {
	c, _ := marker.ParseColor(p.Color)
	return c
}

// Normalize replaces an unknown colour with red and reports whether it did.
func (p *MarkerParams) Normalize() bool {
	c, ok := marker.ParseColor(p.Color)
	p.Color = string(c)
	return !ok
}

func rangeError(field string, v float64, domain string) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%s is NaN, want %s: %w", field, domain, ErrOutOfRange)
	}
	return fmt.Errorf("%s %g not in %s: %w", field, v, domain, ErrOutOfRange)
}
