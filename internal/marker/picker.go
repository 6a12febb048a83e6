package marker

import (
	"fmt"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// Pick builds the coordinate record for a requested point on img, clamping
// the point into the image. The image itself is not changed.
func Pick(img *pixel.Buffer, x, y int, c Color, size int) Record {
	p := Clamp(x, y, img.Width, img.Height)
	return Record{
		X:          p.X,
		Y:          p.Y,
		Width:      img.Width,
		Height:     img.Height,
		PointColor: string(c),
		PointSize:  size,
	}
}

// Preview draws the marker described by a coordinate record onto img.
//
// The point is used as stored, so a record taken from a larger image can
// place the marker partly or fully off-canvas. When the record cannot be
// parsed, or its point_size is outside [MinSize, MaxSize], the input is
// returned unchanged along with the error; callers are expected to log it
// and carry on.
func Preview(img *pixel.Buffer, record string) (*pixel.Buffer, error) {
	r, err := LenientRecord(record)
	if err != nil {
		return img, err
	}
	if r.PointSize < MinSize || r.PointSize > MaxSize {
		return img, fmt.Errorf("record point_size %d not in [%d, %d]", r.PointSize, MinSize, MaxSize)
	}
	c, _ := ParseColor(r.PointColor)
	return Draw(img, r.X, r.Y, c, r.PointSize), nil
}

// Session is the state an interactive picker carries between runs. It is a
// plain value: the caller stores it (for instance as the previous
// coordinates_json) and passes it back on the next call.
type Session struct {
	// Last is the most recent pick, nil before the first one.
	Last *Record
}

// SessionFromJSON restores a session from a record produced by an earlier
// Pick. Empty or malformed input starts a fresh session.
func SessionFromJSON(s string) Session {
	if s == "" {
		return Session{}
	}
	r, err := DecodeRecord(s)
	if err != nil {
		return Session{}
	}
	return Session{Last: &r}
}

// MoveTo returns a session whose next pick lands on (x, y).
func (s Session) MoveTo(x, y int) Session {
	r := Record{X: x, Y: y}
	if s.Last != nil {
		r = *s.Last
		r.X, r.Y = x, y
	}
	return Session{Last: &r}
}

// Pick marks the session's point on img, or the image centre for a fresh
// session, clamped to img. It returns the marked image, the record for this
// pick and the session to use next time.
func (s Session) Pick(img *pixel.Buffer, c Color, size int) (*pixel.Buffer, Record, Session) {
	x, y := img.Width/2, img.Height/2
	if s.Last != nil {
		x, y = s.Last.X, s.Last.Y
	}
	r := Pick(img, x, y, c, size)
	return Draw(img, r.X, r.Y, c, size), r, Session{Last: &r}
}
