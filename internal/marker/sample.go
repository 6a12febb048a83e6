package marker

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// RGBColor is an 8-bit colour.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is hue in degrees (0-360), saturation and lightness in percent.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorSample reports the colour under a picked point.
type ColorSample struct {
	Hex   string   `json:"hex"` // "#RRGGBB", alpha excluded
	RGB   RGBColor `json:"rgb"`
	HSL   HSLColor `json:"hsl"`
	Alpha uint8    `json:"alpha"`
}

// Sample reads the colour at c. The coordinate must lie inside img; use
// Clamp first for user input.
func Sample(img *pixel.Buffer, c Coordinate) (*ColorSample, error) {
	if !img.In(c.X, c.Y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside %dx%d image", c.X, c.Y, img.Width, img.Height)
	}

	rgba := img.WithAlpha()
	o := rgba.Offset(c.X, c.Y)
	col := colorful.Color{
		R: float64(pixel.Quantize(rgba.Pix[o])) / 255,
		G: float64(pixel.Quantize(rgba.Pix[o+1])) / 255,
		B: float64(pixel.Quantize(rgba.Pix[o+2])) / 255,
	}
	r, g, b := col.RGB255()
	h, s, l := col.Hsl()

	return &ColorSample{
		Hex: strings.ToUpper(col.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(h),
			S: int(s * 100),
			L: int(l * 100),
		},
		Alpha: pixel.Quantize(rgba.Pix[o+3]),
	}, nil
}
