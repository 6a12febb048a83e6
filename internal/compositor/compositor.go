package compositor

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/image-overlay-mcp/internal/blend"
	"github.com/ironsheep/image-overlay-mcp/internal/geometry"
	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// Placement selects how a placement origin outside the canvas is handled.
type Placement int

const (
	// PlaceClip uses the corrected origin unchanged for the image, the blend
	// and the mask. Content outside the canvas is cropped the same way in all
	// three.
	PlaceClip Placement = iota

	// PlaceClamp clamps the origin to [0, dim-1] before the blend and the
	// mask are computed, while the normal paste keeps the unclamped origin.
	// This reproduces the node behaviour some existing graphs depend on.
	PlaceClamp
)

// String returns the placement name used in configuration.
func (p Placement) String() string {
	if p == PlaceClamp {
		return "clamp"
	}
	return "clip"
}

// ParsePlacement maps "clip" or "clamp" to a Placement. Anything else is
// PlaceClip.
func ParsePlacement(name string) Placement {
	if name == "clamp" {
		return PlaceClamp
	}
	return PlaceClip
}

// Params controls a composite.
type Params struct {
	// Position is where the overlay's top-left corner goes on the base,
	// before rotation correction. May be negative.
	Position image.Point

	Scale    float64
	Rotation float64 // degrees, counter-clockwise
	FlipH    bool
	FlipV    bool

	Mode blend.Mode

	// Opacity in [0,1]. Below 1 it replaces the overlay's alpha uniformly.
	Opacity float64

	Placement Placement
}

// DefaultParams returns an identity composite at (0,0).
func DefaultParams() Params {
	return Params{Scale: 1, Mode: blend.Normal, Opacity: 1}
}

// Result is a finished composite.
type Result struct {
	// Image has the base's dimensions and always 4 channels.
	Image *pixel.Buffer

	// Mask is single-channel, base-sized overlay coverage after geometry and
	// opacity. It does not depend on the blend mode.
	Mask *pixel.Buffer

	// Origin is the placement after rotation correction.
	Origin image.Point

	// Delta is the canvas growth caused by rotation.
	Delta geometry.SizeDelta
}

// Composite places overlay on base according to p.
//
// The inputs are not modified. Unknown blend modes composite as normal. A
// degenerate overlay (invalid scale, or one that scales to nothing) yields
// the base unchanged with an all-zero mask.
// Only buffers that violate the shape invariant produce an error.
func Composite(base, overlay *pixel.Buffer, p Params) (*Result, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base image: %w", err)
	}
	if err := overlay.Validate(); err != nil {
		return nil, fmt.Errorf("overlay image: %w", err)
	}

	tr := geometry.Transform(overlay, geometry.Options{
		Scale:    p.Scale,
		Rotation: p.Rotation,
		FlipH:    p.FlipH,
		FlipV:    p.FlipV,
	})
	origin := p.Position.Add(geometry.Correction(p.Rotation, tr.Delta))

	canvas := base.WithAlpha()
	res := &Result{
		Image:  canvas,
		Mask:   pixel.MustNew(base.Width, base.Height, pixel.Gray),
		Origin: origin,
		Delta:  tr.Delta,
	}
	if tr.Image.Empty() || canvas.Empty() {
		return res, nil
	}

	ov := tr.Image.WithAlpha()
	if p.Opacity < 1 {
		ov.Fill(3, QuantizeOpacity(p.Opacity))
	}

	res.Image = canvas.Clone()
	sourceOver(res.Image, ov, origin)

	at := origin
	if p.Placement == PlaceClamp {
		at = clampPoint(origin, canvas.Width, canvas.Height)
	}

	if mode, _ := blend.ParseMode(string(p.Mode)); mode != blend.Normal {
		aligned := pixel.MustNew(canvas.Width, canvas.Height, pixel.RGBA)
		if err := aligned.Paste(ov, at); err != nil {
			return nil, err
		}
		blended, err := blend.Apply(canvas, aligned, mode)
		if err != nil {
			return nil, err
		}
		res.Image = blended
	}

	res.Mask = DeriveMask(canvas.Width, canvas.Height, ov, at)
	return res, nil
}

// CompositeBatch composites the first element of each batch.
func CompositeBatch(base, overlay pixel.Batch, p Params) (*Result, error) {
	b, err := base.First()
	if err != nil {
		return nil, fmt.Errorf("base batch: %w", err)
	}
	o, err := overlay.First()
	if err != nil {
		return nil, fmt.Errorf("overlay batch: %w", err)
	}
	return Composite(b, o, p)
}

// QuantizeOpacity snaps an opacity to the 8-bit alpha it is stored as.
func QuantizeOpacity(opacity float64) float32 {
	if !(opacity > 0) {
		return 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return float32(math.Round(255*opacity) / 255)
}

// DeriveMask builds a w x h coverage mask with the overlay placed at `at`.
//
// Overlays with alpha contribute their alpha channel; overlays without alpha
// contribute their luminance. Parts outside the mask are clipped.
func DeriveMask(w, h int, overlay *pixel.Buffer, at image.Point) *pixel.Buffer {
	mask := pixel.MustNew(w, h, pixel.Gray)
	var src *pixel.Buffer
	if overlay.HasAlpha() {
		src = overlay.Alpha()
	} else {
		src = overlay.Luminance()
	}
	// Both buffers are single channel, so Paste cannot fail.
	_ = mask.Paste(src, at)
	return mask
}

// sourceOver composites src over dst in place with src's top-left at `at`.
// Both buffers are RGBA with straight alpha.
func sourceOver(dst, src *pixel.Buffer, at image.Point) {
	r, sp, ok := pixel.Overlap(dst.Width, dst.Height, src.Width, src.Height, at)
	if !ok {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d := dst.Offset(x, y)
			s := src.Offset(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)

			sa := src.Pix[s+3]
			if sa == 0 {
				continue
			}
			da := dst.Pix[d+3]
			outA := sa + da*(1-sa)
			for ch := 0; ch < 3; ch++ {
				c := (src.Pix[s+ch]*sa + dst.Pix[d+ch]*da*(1-sa)) / outA
				dst.Pix[d+ch] = pixel.Clamp01(c)
			}
			dst.Pix[d+3] = pixel.Clamp01(outA)
		}
	}
}

func clampPoint(p image.Point, w, h int) image.Point {
	return image.Pt(max(0, min(p.X, w-1)), max(0, min(p.Y, h-1)))
}
