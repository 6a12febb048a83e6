package marker

import (
	"encoding/json"
	"fmt"
)

// Coordinate is a pixel position inside a specific image.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Clamp limits (x, y) to [0, width-1] x [0, height-1].
func Clamp(x, y, width, height int) Coordinate {
	return Coordinate{
		X: max(0, min(x, width-1)),
		Y: max(0, min(y, height-1)),
	}
}

// Record is the serialized coordinate exchanged between picker and preview
// tools. Field names are part of the wire format.
type Record struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PointColor string `json:"point_color"`
	PointSize  int    `json:"point_size"`
}

// Coordinate returns the record's point.
func (r Record) Coordinate() Coordinate {
	return Coordinate{X: r.X, Y: r.Y}
}

// Encode serializes the record as a JSON object with exactly six keys.
func (r Record) Encode() string {
	// Marshal cannot fail for a struct of ints and strings.
	b, _ := json.Marshal(r)
	return string(b)
}

// DecodeRecord parses a record produced by Encode. Missing keys keep their
// zero value; malformed JSON is an error.
func DecodeRecord(s string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Record{}, fmt.Errorf("invalid coordinates record: %w", err)
	}
	return r, nil
}

// LenientRecord parses a record the way the preview tools read it: missing
// keys take defaults (0, 0, red, DefaultSize) and malformed input yields
// the defaults with the decode error.
func LenientRecord(s string) (Record, error) {
	r := Record{PointColor: string(Red), PointSize: DefaultSize}
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Record{PointColor: string(Red), PointSize: DefaultSize},
			fmt.Errorf("invalid coordinates record: %w", err)
	}
	return r, nil
}
