package marker

import (
	"strconv"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// Grid spacing limits accepted at the tool boundary.
const (
	MinGridSpacing     = 10
	DefaultGridSpacing = 50
)

// 3x5 glyphs for coordinate labels.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// Grid returns an RGB copy of img with a line every spacing pixels in
// colour c, so a caller can read coordinates off a preview. With labels
// set, each intersection is tagged "x,y" in white on black.
//
// Lines are blended at half strength so the image stays visible under them.
// Spacing below MinGridSpacing is raised to it.
func Grid(img *pixel.Buffer, spacing int, c Color, labels bool) *pixel.Buffer {
	out := img.ToRGB()
	spacing = max(spacing, MinGridSpacing)
	v := c.Value()
	line := [3]float32{float32(v.R), float32(v.G), float32(v.B)}

	for x := spacing; x < out.Width; x += spacing {
		for y := 0; y < out.Height; y++ {
			mix(out, x, y, line, 0.5)
		}
	}
	for y := spacing; y < out.Height; y += spacing {
		for x := 0; x < out.Width; x++ {
			if x%spacing == 0 {
				continue // already drawn by the vertical pass
			}
			mix(out, x, y, line, 0.5)
		}
	}

	if labels {
		for y := spacing; y < out.Height; y += spacing {
			for x := spacing; x < out.Width; x += spacing {
				drawLabel(out, x+2, y+2, strconv.Itoa(x)+","+strconv.Itoa(y))
			}
		}
	}
	return out
}

func mix(b *pixel.Buffer, x, y int, c [3]float32, t float32) {
	o := b.Offset(x, y)
	for ch := 0; ch < 3; ch++ {
		b.Pix[o+ch] = b.Pix[o+ch]*(1-t) + c[ch]*t
	}
}

func drawLabel(b *pixel.Buffer, x, y int, text string) {
	width := len(text) * glyphAdvance
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < width; dx++ {
			if b.In(x+dx, y+dy) {
				mix(b, x+dx, y+dy, [3]float32{}, 0.7)
			}
		}
	}

	cx := x
	for _, ch := range text {
		g, ok := glyphs[ch]
		if !ok {
			cx += glyphAdvance
			continue
		}
		for row, bits := range g {
			for col, bit := range bits {
				px, py := cx+col, y+row
				if bit == '1' && b.In(px, py) {
					o := b.Offset(px, py)
					b.Pix[o], b.Pix[o+1], b.Pix[o+2] = 1, 1, 1
				}
			}
		}
		cx += glyphAdvance
	}
}
