// Package geometry scales, flips and rotates overlay buffers before they are
// placed on a canvas.
package geometry

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// Options selects the transforms applied by Transform, in this order:
// scale, flip, rotate.
type Options struct {
	// Scale multiplies both dimensions. Values <= 0 or non-finite produce an
	// empty result.
	Scale float64

	// Rotation is in degrees, counter-clockwise. The canvas grows to contain
	// the rotated content.
	Rotation float64

	FlipH bool
	FlipV bool
}

// SizeDelta is how much the rotated canvas differs from the scaled size.
type SizeDelta struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Result is the transformed overlay.
type Result struct {
	Image *pixel.Buffer

	// ScaledWidth and ScaledHeight are the dimensions after scaling, before
	// rotation.
	ScaledWidth  int
	ScaledHeight int

	Delta SizeDelta
}

// Transform applies opts to overlay and returns a new buffer.
//
// The channel layout is preserved, except that an overlay without alpha
// rotated by an angle that is not a multiple of 90 degrees gains an alpha
// channel: the corners uncovered by the rotation are transparent.
//
// Degenerate input (invalid scale, non-finite rotation, or a scaled size
// below one pixel) returns an empty image with a zero Delta.
func Transform(overlay *pixel.Buffer, opts Options) Result {
	w, h, ok := scaledSize(overlay.Width, overlay.Height, opts.Scale)
	if !ok || math.IsNaN(opts.Rotation) || math.IsInf(opts.Rotation, 0) {
		return Result{Image: pixel.MustNew(0, 0, overlay.Channels)}
	}

	img := overlay.ToNRGBA()
	if w != overlay.Width || h != overlay.Height {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	if opts.FlipH {
		img = imaging.FlipH(img)
	}
	if opts.FlipV {
		img = imaging.FlipV(img)
	}

	channels := overlay.Channels
	switch angle := normalizeAngle(opts.Rotation); angle {
	case 0:
	case 90:
		img = imaging.Rotate90(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate270(img)
	default:
		img = rotateExpand(img, angle)
		channels = pixel.RGBA
	}

	out := pixel.FromNRGBA(img, channels)
	return Result{
		Image:        out,
		ScaledWidth:  w,
		ScaledHeight: h,
		Delta:        SizeDelta{DX: out.Width - w, DY: out.Height - h},
	}
}

// Correction returns the shift to apply to the placement origin so rotated
// content stays centred on the requested anchor.
//
// Rotations that are a multiple of 180 degrees need no shift.
func Correction(rotation float64, d SizeDelta) image.Point {
	if math.Mod(rotation, 180) == 0 {
		return image.Point{}
	}
	return image.Pt(-floorDiv(d.DX, 2), -floorDiv(d.DY, 2))
}

func scaledSize(w, h int, scale float64) (int, int, bool) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return 0, 0, false
	}
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	if sw < 1 || sh < 1 {
		return 0, 0, false
	}
	return sw, sh, true
}

// normalizeAngle maps degrees into [0, 360).
func normalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a == 360 {
		a = 0
	}
	return a
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// rotatedBounds returns the integer canvas size that contains a w x h
// rectangle rotated about its centre by the given sine and cosine.
func rotatedBounds(w, h int, sin, cos float64) (int, int) {
	hw, hh := float64(w)/2, float64(h)/2
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		x := snap(p[0]*cos + p[1]*sin)
		y := snap(-p[0]*sin + p[1]*cos)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return int(math.Ceil(maxX) - math.Floor(minX)), int(math.Ceil(maxY) - math.Floor(minY))
}

// snap removes floating point noise so exact corners do not round up a pixel.
func snap(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// rotateExpand rotates src counter-clockwise by deg degrees about its centre
// with Catmull-Rom (bicubic) resampling on an expanded transparent canvas.
func rotateExpand(src *image.NRGBA, deg float64) *image.NRGBA {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := rotatedBounds(sw, sh, sin, cos)
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	// Source to destination: rotate about the source centre, then move that
	// centre onto the destination centre. Y points down, so a visually
	// counter-clockwise turn maps (x, y) to (x*cos + y*sin, -x*sin + y*cos).
	scx, scy := float64(sw)/2, float64(sh)/2
	dcx, dcy := float64(dw)/2, float64(dh)/2
	s2d := f64.Aff3{
		cos, sin, dcx - (cos*scx + sin*scy),
		-sin, cos, dcy - (-sin*scx + cos*scy),
	}
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
	return dst
}
