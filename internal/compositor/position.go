package compositor

import (
	"encoding/json"
	"image"
)

// ParsePosition reads an overlay position record of the form
// `[{"x": 10, "y": 20}, ...]`.
//
// Only the first element is used. Missing or non-numeric keys read as 0 and
// fractional values truncate toward zero. Empty, malformed or non-list input
// yields (0,0) and ok == false; it never fails.
func ParsePosition(s string) (p image.Point, ok bool) {
	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(s), &records); err != nil || len(records) == 0 || records[0] == nil {
		return image.Point{}, false
	}
	first := records[0]
	return image.Pt(intField(first, "x"), intField(first, "y")), true
}

// FormatPosition renders p as a position record accepted by ParsePosition.
func FormatPosition(p image.Point) string {
	b, _ := json.Marshal([]map[string]int{{"x": p.X, "y": p.Y}})
	return string(b)
}

func intField(m map[string]interface{}, key string) int {
	v, ok := m[key].(float64)
	if !ok {
		return 0
	}
	return int(v)
}
