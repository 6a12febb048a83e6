package pixel

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is returned for buffers whose dimensions or channel count
// violate the Buffer invariant.
var ErrInvalidShape = errors.New("invalid buffer shape")

// Channel layouts supported by Buffer.
const (
	Gray = 1 // single luminance channel
	RGB  = 3 // red, green, blue
	RGBA = 4 // red, green, blue, alpha (straight, not premultiplied)
)

// Buffer is a dense image of normalized float samples.
//
// Samples are stored row-major and interleaved: the value of channel ch at
// pixel (x, y) lives at Pix[(y*Width+x)*Channels+ch]. All samples are in [0,1].
//
// A Buffer with zero width or height is valid and Empty. It is what geometric
// operations return for degenerate input.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// New allocates a zeroed buffer.
//
// Returns ErrInvalidShape for negative dimensions or a channel count other
// than 1, 3 or 4.
func New(width, height, channels int) (*Buffer, error) {
	if err := checkShape(width, height, channels); err != nil {
		return nil, err
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}, nil
}

// MustNew is like New but panics on an invalid shape. Intended for shapes
// known to be valid at compile time.
func MustNew(width, height, channels int) *Buffer {
	b, err := New(width, height, channels)
	if err != nil {
		panic(err)
	}
	return b
}

// Filled allocates a buffer with every pixel set to the given channel values.
// len(values) determines the channel count.
func Filled(width, height int, values ...float32) (*Buffer, error) {
	b, err := New(width, height, len(values))
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(b.Pix); i += b.Channels {
		for ch, v := range values {
			b.Pix[i+ch] = Clamp01(v)
		}
	}
	return b, nil
}

func checkShape(width, height, channels int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidShape, width, height)
	}
	switch channels {
	case Gray, RGB, RGBA:
	default:
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidShape, channels)
	}
	return nil
}

// Validate checks the shape invariant of an existing buffer.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidShape)
	}
	if err := checkShape(b.Width, b.Height, b.Channels); err != nil {
		return err
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: %d samples for %dx%dx%d (want %d)",
			ErrInvalidShape, len(b.Pix), b.Width, b.Height, b.Channels, want)
	}
	return nil
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// HasAlpha reports whether the buffer carries an alpha channel.
func (b *Buffer) HasAlpha() bool {
	return b.Channels == RGBA
}

// SameShape reports whether b and o have identical dimensions and channels.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels
}

// Offset returns the index of channel 0 of pixel (x, y) in Pix.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// In reports whether (x, y) lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns channel ch of pixel (x, y). The caller must stay in bounds.
func (b *Buffer) At(x, y, ch int) float32 {
	return b.Pix[b.Offset(x, y)+ch]
}

// Set stores v, clamped to [0,1], in channel ch of pixel (x, y).
func (b *Buffer) Set(x, y, ch int, v float32) {
	b.Pix[b.Offset(x, y)+ch] = Clamp01(v)
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]float32, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: pix}
}

// Fill sets channel ch of every pixel to v.
func (b *Buffer) Fill(ch int, v float32) {
	v = Clamp01(v)
	for i := ch; i < len(b.Pix); i += b.Channels {
		b.Pix[i] = v
	}
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}

// Quantize converts a sample to 8-bit storage, rounding half up.
func Quantize(v float32) uint8 {
	return uint8(Clamp01(v)*255 + 0.5)
}

// Batch is a sequence of buffers of identical shape. Operations in this
// module only consume the first element.
type Batch []*Buffer

// First returns element 0 of the batch after validating the batch.
func (bt Batch) First() (*Buffer, error) {
	if err := bt.Validate(); err != nil {
		return nil, err
	}
	return bt[0], nil
}

// Validate checks that the batch is non-empty, every element is a valid
// buffer, and all elements share one shape.
func (bt Batch) Validate() error {
	if len(bt) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidShape)
	}
	for i, b := range bt {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("batch element %d: %w", i, err)
		}
		if !b.SameShape(bt[0]) {
			return fmt.Errorf("%w: batch element %d is %dx%dx%d, element 0 is %dx%dx%d",
				ErrInvalidShape, i, b.Width, b.Height, b.Channels,
				bt[0].Width, bt[0].Height, bt[0].Channels)
		}
	}
	return nil
}
