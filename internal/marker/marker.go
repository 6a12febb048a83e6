package marker

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// Color names a marker colour.
type Color string

// Marker colours.
const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	White  Color = "white"
)

// Marker size limits accepted at the tool boundary.
const (
	MinSize     = 1
	MaxSize     = 50
	DefaultSize = 10
)

var palette = map[Color]colorful.Color{
	Red:    {R: 1, G: 0, B: 0},
	Blue:   {R: 0, G: 0, B: 1},
	Green:  {R: 0, G: 1, B: 0},
	Yellow: {R: 1, G: 1, B: 0},
	White:  {R: 1, G: 1, B: 1},
}

var colorOrder = []Color{Red, Blue, Green, Yellow, White}

// ColorNames lists the marker colours in display order.
func ColorNames() []string {
	out := make([]string, len(colorOrder))
	for i, c := range colorOrder {
		out[i] = string(c)
	}
	return out
}

// ParseColor looks up a colour by name. Unknown names return Red and false.
func ParseColor(name string) (Color, bool) {
	if _, ok := palette[Color(name)]; ok {
		return Color(name), true
	}
	return Red, false
}

// Value returns the colour; unknown names resolve to red.
func (c Color) Value() colorful.Color {
	if v, ok := palette[c]; ok {
		return v
	}
	return palette[Red]
}

// RGB255 returns the 8-bit triple, e.g. (255, 255, 0) for yellow.
func (c Color) RGB255() (r, g, b uint8) {
	return c.Value().RGB255()
}

// Draw returns an RGB copy of img with a filled disc of the given radius
// centred on (x, y).
//
// Every pixel (x+i, y+j) with i*i + j*j <= radius*radius is painted; pixels
// outside the image are skipped. Alpha is dropped and gray is expanded to RGB.
func Draw(img *pixel.Buffer, x, y int, c Color, radius int) *pixel.Buffer {
	out := img.ToRGB()
	v := c.Value()
	rgb := [3]float32{float32(v.R), float32(v.G), float32(v.B)}

	if radius < 0 {
		return out
	}
	// Loop bounds are clipped to the image, so cost follows the painted area.
	i0, i1 := max(-radius, -x), min(radius, out.Width-1-x)
	j0, j1 := max(-radius, -y), min(radius, out.Height-1-y)
	r2 := radius * radius
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			if i*i+j*j > r2 {
				continue
			}
			o := out.Offset(x+i, y+j)
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = rgb[0], rgb[1], rgb[2]
		}
	}
	return out
}
