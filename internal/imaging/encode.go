package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// JPEGQuality is used for every JPEG the server writes.
const JPEGQuality = 95

// EncodedImage is an image ready to return to an MCP client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NormalizeFormat maps an output format name to "png" or "jpeg". It
// reports false for names it does not know, which map to "png".
//
// "webp" is accepted but written as PNG, since no encoder for it is
// available.
func NormalizeFormat(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "png", "webp":
		return "png", true
	case "jpg", "jpeg":
		return "jpeg", true
	}
	return "png", false
}

// Encode writes buf in the given format and base64-encodes the result.
// PNG keeps alpha. JPEG has none, so alpha is dropped and the colour
// channels are written as they are.
func Encode(buf *pixel.Buffer, format string) (*EncodedImage, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.Empty() {
		return nil, fmt.Errorf("cannot encode %dx%d image: %w", buf.Width, buf.Height, pixel.ErrInvalidShape)
	}

	name, _ := NormalizeFormat(format)
	var img image.Image
	switch {
	case buf.Channels == pixel.Gray:
		img = buf.ToGray()
	case name == "jpeg":
		img = buf.ToRGB().ToNRGBA()
	default:
		img = buf.ToNRGBA()
	}

	var out bytes.Buffer
	var err error
	if name == "jpeg" {
		err = imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	} else {
		err = imaging.Encode(&out, img, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       buf.Width,
		Height:      buf.Height,
		Format:      name,
		ImageBase64: base64.StdEncoding.EncodeToString(out.Bytes()),
		MimeType:    "image/" + name,
	}, nil
}

// EncodeMask writes a single-channel mask as an 8-bit grayscale PNG.
func EncodeMask(mask *pixel.Buffer) (*EncodedImage, error) {
	if mask.Channels != pixel.Gray {
		return nil, fmt.Errorf("mask must have 1 channel, got %d: %w", mask.Channels, pixel.ErrInvalidShape)
	}
	return Encode(mask, "png")
}

// Save writes buf to path as PNG.
func Save(buf *pixel.Buffer, path string) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	var img image.Image = buf.ToNRGBA()
	if buf.Channels == pixel.Gray {
		img = buf.ToGray()
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
