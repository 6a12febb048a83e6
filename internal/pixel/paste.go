package pixel

import (
	"fmt"
	"image"
)

// Overlap computes the rectangle where src, placed with its top-left corner
// at `at`, intersects a dst of size dstW x dstH.
//
// dst is the destination rectangle and srcMin the matching top-left pixel in
// src. ok is false when there is no overlap at all.
func Overlap(dstW, dstH, srcW, srcH int, at image.Point) (dst image.Rectangle, srcMin image.Point, ok bool) {
	placed := image.Rect(at.X, at.Y, at.X+srcW, at.Y+srcH)
	dst = placed.Intersect(image.Rect(0, 0, dstW, dstH))
	if dst.Empty() {
		return image.Rectangle{}, image.Point{}, false
	}
	return dst, dst.Min.Sub(at), true
}

// Paste copies src into b with src's top-left corner at `at`, clipped to the
// overlapping rectangle. Samples are copied verbatim (no blending). Both
// buffers must have the same channel count.
func (b *Buffer) Paste(src *Buffer, at image.Point) error {
	if src.Channels != b.Channels {
		return fmt.Errorf("%w: paste %d channels into %d", ErrInvalidShape, src.Channels, b.Channels)
	}
	dst, sp, ok := Overlap(b.Width, b.Height, src.Width, src.Height, at)
	if !ok {
		return nil
	}
	n := dst.Dx() * b.Channels
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		d := b.Offset(dst.Min.X, y)
		s := src.Offset(sp.X, sp.Y+y-dst.Min.Y)
		copy(b.Pix[d:d+n], src.Pix[s:s+n])
	}
	return nil
}
