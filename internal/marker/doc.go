// Package marker draws coordinate markers on images and manages the
// coordinate records passed between picker and preview tools.
//
// A marker is a filled disc in one of five named colours (red, blue, green,
// yellow, white). Unknown names fall back to red rather than failing.
//
// # Coordinate Records
//
// A Record is serialized as a JSON object with exactly these keys:
//
//	{"x": 10, "y": 20, "width": 640, "height": 480, "point_color": "red", "point_size": 10}
//
// Encode and DecodeRecord round-trip every field.
//
// # Interactive Picking
//
// The interactive picker keeps no hidden state. A Session value holds the
// last pick; the caller passes it in and gets the next one back.
package marker
