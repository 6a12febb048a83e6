// Package blend implements the photographic blend modes used when an overlay
// is composited in a mode other than normal.
//
// Every mode is separable: it combines one base channel value a with one
// overlay channel value b, both in [0,1], and the result is clamped back to
// [0,1]. Branching modes (overlay, soft_light, hard_light) test their
// condition with a strict "> 0.5"; exactly 0.5 takes the other branch.
package blend

import (
	"errors"
	"fmt"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// ErrShapeMismatch is returned by Apply when the two buffers differ in shape.
var ErrShapeMismatch = errors.New("blend: buffer shapes differ")

// Mode names a blend function.
type Mode string

// Supported blend modes.
const (
	Normal     Mode = "normal"      // b
	Multiply   Mode = "multiply"    // a*b
	Screen     Mode = "screen"      // 1-(1-a)(1-b)
	Overlay    Mode = "overlay"     // hard light keyed on the base
	SoftLight  Mode = "soft_light"  // gentle contrast keyed on the overlay
	HardLight  Mode = "hard_light"  // multiply or screen keyed on the overlay
	ColorDodge Mode = "color_dodge" // a/(1-b)
	ColorBurn  Mode = "color_burn"  // 1-(1-a)/b
	Darken     Mode = "darken"      // min(a,b)
	Lighten    Mode = "lighten"     // max(a,b)
)

// epsilon keeps dodge and burn finite at b = 1 and b = 0.
const epsilon = 1e-6

var modes = []Mode{
	Normal, Multiply, Screen, Overlay, SoftLight,
	HardLight, ColorDodge, ColorBurn, Darken, Lighten,
}

// Modes returns every supported mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// Names returns the mode names as strings, for schemas and help text.
func Names() []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// ParseMode looks up a mode by name. Unknown names return Normal and false.
func ParseMode(name string) (Mode, bool) {
	for _, m := range modes {
		if string(m) == name {
			return m, true
		}
	}
	return Normal, false
}

// Channel blends one base sample a with one overlay sample b.
// Unknown modes behave like Normal.
func Channel(a, b float64, m Mode) float64 {
	var r float64
	switch m {
	case Multiply:
		r = a * b
	case Screen:
		r = 1 - (1-a)*(1-b)
	case Overlay:
		if a > 0.5 {
			r = 1 - 2*(1-a)*(1-b)
		} else {
			r = 2 * a * b
		}
	case SoftLight:
		if b > 0.5 {
			r = a * (1 - (1-a)*(1-2*(b-0.5)))
		} else {
			r = a * (1 + (2*b-1)*a)
		}
	case HardLight:
		if b > 0.5 {
			r = 1 - 2*(1-a)*(1-b)
		} else {
			r = 2 * a * b
		}
	case ColorDodge:
		r = min(1, a/(1-b+epsilon))
	case ColorBurn:
		r = 1 - min(1, (1-a)/(b+epsilon))
	case Darken:
		r = min(a, b)
	case Lighten:
		r = max(a, b)
	default:
		r = b
	}
	return clamp01(r)
}

// Apply blends overlay onto base channel by channel, alpha included, and
// returns a new buffer. The buffers must have identical shapes.
func Apply(base, overlay *pixel.Buffer, m Mode) (*pixel.Buffer, error) {
	if !base.SameShape(overlay) {
		return nil, fmt.Errorf("%w: base %dx%dx%d, overlay %dx%dx%d", ErrShapeMismatch,
			base.Width, base.Height, base.Channels,
			overlay.Width, overlay.Height, overlay.Channels)
	}
	out := &pixel.Buffer{
		Width:    base.Width,
		Height:   base.Height,
		Channels: base.Channels,
		Pix:      make([]float32, len(base.Pix)),
	}
	for i, a := range base.Pix {
		out.Pix[i] = float32(Channel(float64(a), float64(overlay.Pix[i]), m))
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}
