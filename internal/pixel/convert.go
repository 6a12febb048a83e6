package pixel

import (
	"image"

	"github.com/disintegration/imaging"
)

// ITU-R BT.601 luma weights, as used by 8-bit "L" grayscale conversion.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// rgbAt returns the colour of pixel i (sample offset) as RGB, replicating gray.
func (b *Buffer) rgbAt(i int) (r, g, bl float32) {
	if b.Channels == Gray {
		v := b.Pix[i]
		return v, v, v
	}
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// WithAlpha returns a 4-channel copy. Gray is replicated into RGB and a
// missing alpha channel is synthesized as fully opaque.
func (b *Buffer) WithAlpha() *Buffer {
	if b.Channels == RGBA {
		return b.Clone()
	}
	out := MustNew(b.Width, b.Height, RGBA)
	for i, o := 0, 0; i < len(b.Pix); i, o = i+b.Channels, o+RGBA {
		out.Pix[o], out.Pix[o+1], out.Pix[o+2] = b.rgbAt(i)
		out.Pix[o+3] = 1
	}
	return out
}

// ToRGB returns a 3-channel copy, dropping alpha or replicating gray.
func (b *Buffer) ToRGB() *Buffer {
	if b.Channels == RGB {
		return b.Clone()
	}
	out := MustNew(b.Width, b.Height, RGB)
	for i, o := 0, 0; i < len(b.Pix); i, o = i+b.Channels, o+RGB {
		out.Pix[o], out.Pix[o+1], out.Pix[o+2] = b.rgbAt(i)
	}
	return out
}

// Alpha returns the alpha channel as a single-channel buffer. Buffers without
// alpha are opaque, so the result is all ones.
func (b *Buffer) Alpha() *Buffer {
	out := MustNew(b.Width, b.Height, Gray)
	if b.Channels != RGBA {
		out.Fill(0, 1)
		return out
	}
	for i, o := 3, 0; i < len(b.Pix); i, o = i+RGBA, o+1 {
		out.Pix[o] = b.Pix[i]
	}
	return out
}

// Luminance returns a single-channel buffer of BT.601 luma. Alpha is ignored.
func (b *Buffer) Luminance() *Buffer {
	if b.Channels == Gray {
		return b.Clone()
	}
	out := MustNew(b.Width, b.Height, Gray)
	for i, o := 0, 0; i < len(b.Pix); i, o = i+b.Channels, o+1 {
		r, g, bl := b.rgbAt(i)
		out.Pix[o] = Clamp01(lumaR*r + lumaG*g + lumaB*bl)
	}
	return out
}

// FromImage converts a decoded image into a Buffer.
//
// Gray image types produce 1 channel, image types able to carry alpha produce
// 4 channels, and every other type (YCbCr, CMYK, ...) produces 3 channels.
func FromImage(img image.Image) *Buffer {
	channels := RGB
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = Gray
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64,
		*image.Paletted, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		channels = RGBA
	}
	return FromNRGBA(imaging.Clone(img), channels)
}

// FromNRGBA converts an NRGBA image into a Buffer with the requested channel
// layout. Colour is reduced to luma for Gray, alpha is dropped for RGB.
func FromNRGBA(img *image.NRGBA, channels int) *Buffer {
	bounds := img.Bounds()
	out := MustNew(bounds.Dx(), bounds.Dy(), channels)
	for y := 0; y < out.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+out.Width*4]
		for x := 0; x < out.Width; x++ {
			s := row[x*4 : x*4+4]
			o := out.Offset(x, y)
			r := float32(s[0]) / 255
			g := float32(s[1]) / 255
			bl := float32(s[2]) / 255
			switch channels {
			case Gray:
				out.Pix[o] = Clamp01(lumaR*r + lumaG*g + lumaB*bl)
			case RGB:
				out.Pix[o], out.Pix[o+1], out.Pix[o+2] = r, g, bl
			case RGBA:
				out.Pix[o], out.Pix[o+1], out.Pix[o+2] = r, g, bl
				out.Pix[o+3] = float32(s[3]) / 255
			}
		}
	}
	return out
}

// ToNRGBA converts the buffer to an 8-bit image with origin (0,0).
// Buffers without alpha become fully opaque.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := b.Offset(x, y)
			d := img.PixOffset(x, y)
			r, g, bl := b.rgbAt(i)
			img.Pix[d] = Quantize(r)
			img.Pix[d+1] = Quantize(g)
			img.Pix[d+2] = Quantize(bl)
			if b.Channels == RGBA {
				img.Pix[d+3] = Quantize(b.Pix[i+3])
			} else {
				img.Pix[d+3] = 255
			}
		}
	}
	return img
}

// ToGray converts the buffer to an 8-bit grayscale image. Multi-channel
// buffers are reduced to luma.
func (b *Buffer) ToGray() *image.Gray {
	src := b
	if b.Channels != Gray {
		src = b.Luminance()
	}
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.Pix[img.PixOffset(x, y)] = Quantize(src.Pix[y*b.Width+x])
		}
	}
	return img
}
