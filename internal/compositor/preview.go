package compositor

import (
	"image"

	"github.com/ironsheep/image-overlay-mcp/internal/blend"
	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// OverlayState is the stored placement an overlay preview renders from.
type OverlayState struct {
	PositionX int     `json:"position_x"`
	PositionY int     `json:"position_y"`
	Scale     float64 `json:"scale"`
	Rotation  float64 `json:"rotation"`
	BlendMode string  `json:"blend_mode"`
	Opacity   float64 `json:"opacity"`
}

// Params converts the state into composite parameters. Previews always
// composite in normal mode without flips; BlendMode is carried for display
// only.
func (s OverlayState) Params() Params {
	return Params{
		Position: image.Pt(s.PositionX, s.PositionY),
		Scale:    s.Scale,
		Rotation: s.Rotation,
		Mode:     blend.Normal,
		Opacity:  s.Opacity,
	}
}

// Preview renders overlay on base as described by state and returns only
// the image. The placement matches Composite, rotation correction included,
// so the preview lines up with the final render.
func Preview(base, overlay *pixel.Buffer, state OverlayState) (*pixel.Buffer, error) {
	res, err := Composite(base, overlay, state.Params())
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}
