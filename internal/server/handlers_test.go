package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-overlay-mcp/internal/imaging"
	"github.com/ironsheep/image-overlay-mcp/internal/marker"
	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// createTestImageFile writes a solid image with the given channel values
// and returns its path.
func createTestImageFile(t *testing.T, width, height int, values ...float32) string {
	t.Helper()
	buf, err := pixel.Filled(width, height, values...)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	path := filepath.Join(t.TempDir(), "handler-test.png")
	if err := imaging.Save(buf, path); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()
	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return out, nil
}

func mustCall(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	out, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %s (%v)", name, mcpErr.Message, mcpErr.Data)
	}
	return out
}

// decodeImage decodes an EncodedImage object from a tool result.
func decodeImage(t *testing.T, v interface{}) image.Image {
	t.Helper()
	obj, ok := v.(map[string]interface{})
	if !ok {
		t.Fatalf("expected an encoded image object, got %T", v)
	}
	data, err := base64.StdEncoding.DecodeString(obj["image_base64"].(string))
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func red8(img image.Image, x, y int) uint32 {
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 100, 80, 1, 0, 0, 0.5)

	out := mustCall(t, s, "image_load", map[string]interface{}{"path": imgPath})
	if out["width"] != float64(100) || out["height"] != float64(80) {
		t.Errorf("size: got %vx%v", out["width"], out["height"])
	}
	if out["channels"] != float64(4) || out["has_alpha"] != true {
		t.Errorf("channels: got %v, has_alpha %v", out["channels"], out["has_alpha"])
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New(nil)
	_, mcpErr := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	if mcpErr == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := New(nil)
	for _, name := range []string{"image_load", "image_overlay", "image_coordinate_picker", "image_preview"} {
		t.Run(name, func(t *testing.T) {
			if _, mcpErr := callTool(t, s, name, map[string]interface{}{}); mcpErr == nil {
				t.Error("Expected error when no path is given")
			}
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New(nil)
	_, mcpErr := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Errorf("got %+v, want code -32000", mcpErr)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want code -32602", resp.Error)
	}
}

func TestImageOverlay_Normal(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 100, 100, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 10, 10, 1, 1, 1, 1)

	out := mustCall(t, s, "image_overlay", map[string]interface{}{
		"base_path":    base,
		"overlay_path": overlay,
		"coordinates":  `[{"x": 20, "y": 30}]`,
	})

	img := decodeImage(t, out["image"])
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("composite size: %v", img.Bounds())
	}
	if red8(img, 25, 35) != 255 || red8(img, 5, 5) != 0 || red8(img, 30, 35) != 0 {
		t.Errorf("composite pixels: inside %d, outside %d, edge %d", red8(img, 25, 35), red8(img, 5, 5), red8(img, 30, 35))
	}

	mask := decodeImage(t, out["mask"])
	if red8(mask, 20, 30) != 255 || red8(mask, 19, 30) != 0 {
		t.Errorf("mask: got %d at origin, %d outside", red8(mask, 20, 30), red8(mask, 19, 30))
	}

	origin := out["origin"].(map[string]interface{})
	if origin["x"] != float64(20) || origin["y"] != float64(30) {
		t.Errorf("origin: got %v", origin)
	}
	if out["blend_mode"] != "normal" || out["placement"] != "clip" {
		t.Errorf("mode/placement: %v %v", out["blend_mode"], out["placement"])
	}
}

func TestImageOverlay_RotationDelta(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 100, 100, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 40, 20, 1, 1, 1, 1)

	out := mustCall(t, s, "image_overlay", map[string]interface{}{
		"base_path":    base,
		"overlay_path": overlay,
		"coordinates":  `[{"x": 40, "y": 40}]`,
		"rotation":     90,
	})

	delta := out["size_delta"].(map[string]interface{})
	if delta["dx"] != float64(-20) || delta["dy"] != float64(20) {
		t.Errorf("size_delta: got %v, want dx=-20 dy=20", delta)
	}
	origin := out["origin"].(map[string]interface{})
	if origin["x"] != float64(50) || origin["y"] != float64(30) {
		t.Errorf("origin: got %v, want (50,30)", origin)
	}
}

func TestImageOverlay_Arguments(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 20, 20, 0.5, 0.5, 0.5, 1)
	overlay := createTestImageFile(t, 5, 5, 1, 0, 0, 1)

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantErr  bool
		wantMode string
	}{
		{"unknown blend mode normalises", map[string]interface{}{"blend_mode": "dissolve"}, false, "normal"},
		{"multiply", map[string]interface{}{"blend_mode": "multiply"}, false, "multiply"},
		{"scale too large", map[string]interface{}{"scale": 11.0}, true, ""},
		{"scale at lower bound", map[string]interface{}{"scale": 0.1}, true, ""},
		{"rotation too large", map[string]interface{}{"rotation": 400.0}, true, ""},
		{"opacity above one", map[string]interface{}{"opacity": 1.5}, true, ""},
		{"malformed coordinates", map[string]interface{}{"coordinates": "{broken"}, false, "normal"},
		{"unknown output format", map[string]interface{}{"output_format": "tiff"}, false, "normal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"base_path": base, "overlay_path": overlay}
			for k, v := range tt.args {
				args[k] = v
			}
			out, mcpErr := callTool(t, s, "image_overlay", args)
			if (mcpErr != nil) != tt.wantErr {
				t.Fatalf("error = %+v, wantErr %v", mcpErr, tt.wantErr)
			}
			if mcpErr != nil {
				return
			}
			if out["blend_mode"] != tt.wantMode {
				t.Errorf("blend_mode: got %v, want %s", out["blend_mode"], tt.wantMode)
			}
			if out["image"].(map[string]interface{})["mime_type"] != "image/png" {
				t.Errorf("mime_type: got %v", out["image"].(map[string]interface{})["mime_type"])
			}
		})
	}
}

func TestImageOverlay_MalformedCoordinatesAtOrigin(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 20, 20, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 5, 5, 1, 1, 1, 1)

	out := mustCall(t, s, "image_overlay", map[string]interface{}{
		"base_path":    base,
		"overlay_path": overlay,
		"coordinates":  "not json",
	})
	origin := out["origin"].(map[string]interface{})
	if origin["x"] != float64(0) || origin["y"] != float64(0) {
		t.Errorf("origin: got %v, want (0,0)", origin)
	}
	if red8(decodeImage(t, out["image"]), 2, 2) != 255 {
		t.Error("overlay should be placed at (0,0)")
	}
}

func TestImageOverlay_CoordinatesForms(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 20, 20, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 5, 5, 1, 1, 1, 1)

	tests := []struct {
		name   string
		coords interface{}
		want   image.Point
	}{
		{"string", `[{"x": 7, "y": 3}]`, image.Pt(7, 3)},
		{"list", []map[string]int{{"x": 7, "y": 3}}, image.Pt(7, 3)},
		{"object", map[string]int{"x": 7, "y": 3}, image.Pt(0, 0)},
		{"number", 12, image.Pt(0, 0)},
		{"null", nil, image.Pt(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCall(t, s, "image_overlay", map[string]interface{}{
				"base_path":    base,
				"overlay_path": overlay,
				"coordinates":  tt.coords,
			})
			origin := out["origin"].(map[string]interface{})
			if origin["x"] != float64(tt.want.X) || origin["y"] != float64(tt.want.Y) {
				t.Errorf("origin: got %v, want %v", origin, tt.want)
			}
		})
	}
}

func TestImageOverlay_ZeroOpacity(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 20, 20, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 5, 5, 1, 1, 1, 1)

	out := mustCall(t, s, "image_overlay", map[string]interface{}{
		"base_path":    base,
		"overlay_path": overlay,
		"opacity":      0,
	})
	if red8(decodeImage(t, out["image"]), 2, 2) != 0 {
		t.Error("transparent overlay changed the base")
	}
	if red8(decodeImage(t, out["mask"]), 2, 2) != 0 {
		t.Error("mask should be empty at opacity 0")
	}
}

func TestImageOverlay_SavesOutput(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 20, 20, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 5, 5, 1, 1, 1, 1)
	outPath := filepath.Join(t.TempDir(), "composite.png")

	out := mustCall(t, s, "image_overlay", map[string]interface{}{
		"base_path":    base,
		"overlay_path": overlay,
		"output_path":  outPath,
	})
	if out["saved_to"] != outPath {
		t.Errorf("saved_to: got %v", out["saved_to"])
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestImageOverlayPreview(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 50, 50, 0, 0, 0, 1)
	overlay := createTestImageFile(t, 10, 10, 1, 1, 1, 1)

	out := mustCall(t, s, "image_overlay_preview", map[string]interface{}{
		"base_path":     base,
		"overlay_path":  overlay,
		"overlay_state": map[string]interface{}{"position_x": 20, "position_y": 30, "blend_mode": "multiply"},
	})

	img := decodeImage(t, out)
	// Missing scale and opacity take the defaults; the preview ignores the mode.
	if red8(img, 25, 35) != 255 || red8(img, 15, 35) != 0 {
		t.Errorf("preview pixels: inside %d, outside %d", red8(img, 25, 35), red8(img, 15, 35))
	}
}

func TestImageOverlayPreview_Errors(t *testing.T) {
	s := New(nil)
	base := createTestImageFile(t, 10, 10, 0, 0, 0, 1)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing state", map[string]interface{}{"base_path": base, "overlay_path": base}},
		{"state out of range", map[string]interface{}{
			"base_path": base, "overlay_path": base,
			"overlay_state": map[string]interface{}{"scale": 50},
		}},
		{"state not an object", map[string]interface{}{
			"base_path": base, "overlay_path": base, "overlay_state": "x",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, mcpErr := callTool(t, s, "image_overlay_preview", tt.args); mcpErr == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCoordinatePicker(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 64, 32, 0, 0, 1)

	out := mustCall(t, s, "image_coordinate_picker", map[string]interface{}{
		"path":        imgPath,
		"initial_x":   100,
		"initial_y":   5,
		"point_color": "yellow",
		"point_size":  7,
	})

	if out["x"] != float64(63) || out["y"] != float64(5) {
		t.Errorf("point: got (%v,%v), want (63,5)", out["x"], out["y"])
	}
	rec, err := marker.DecodeRecord(out["coordinates_json"].(string))
	if err != nil {
		t.Fatalf("coordinates_json: %v", err)
	}
	want := marker.Record{X: 63, Y: 5, Width: 64, Height: 32, PointColor: "yellow", PointSize: 7}
	if rec != want {
		t.Errorf("record: got %+v, want %+v", rec, want)
	}
	if c := out["color"].(map[string]interface{}); c["hex"] != "#0000FF" {
		t.Errorf("color: got %v", c)
	}
}

func TestCoordinatePicker_Validation(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 10, 10, 0, 0, 0)

	for _, size := range []int{0, 51} {
		_, mcpErr := callTool(t, s, "image_coordinate_picker", map[string]interface{}{"path": imgPath, "point_size": size})
		if mcpErr == nil {
			t.Errorf("point_size %d should be rejected", size)
		}
	}

	out := mustCall(t, s, "image_coordinate_picker", map[string]interface{}{"path": imgPath, "point_color": "purple"})
	rec, _ := marker.DecodeRecord(out["coordinates_json"].(string))
	if rec.PointColor != "red" || rec.PointSize != marker.DefaultSize {
		t.Errorf("defaults: got %+v", rec)
	}
}

func TestCoordinatePreview(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 30, 30, 0, 0, 0)

	rec := marker.Record{X: 10, Y: 12, Width: 30, Height: 30, PointColor: "white", PointSize: 2}
	out := mustCall(t, s, "image_coordinate_preview", map[string]interface{}{
		"path":             imgPath,
		"coordinates_json": rec.Encode(),
	})
	img := decodeImage(t, out)
	if red8(img, 10, 12) != 255 || red8(img, 10, 15) != 0 {
		t.Errorf("marker pixels: centre %d, outside %d", red8(img, 10, 12), red8(img, 10, 15))
	}
}

func TestCoordinatePreview_MalformedRecord(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 30, 30, 0.2, 0.2, 0.2)

	out := mustCall(t, s, "image_coordinate_preview", map[string]interface{}{
		"path":             imgPath,
		"coordinates_json": "{not json",
	})
	img := decodeImage(t, out)
	for _, p := range []image.Point{{0, 0}, {15, 15}, {29, 29}} {
		if got := red8(img, p.X, p.Y); got != 51 {
			t.Errorf("%v: got %d, want unchanged 51", p, got)
		}
	}
}

func TestCoordinatePreview_SizeOutOfRange(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 4, 4, 0.2, 0.2, 0.2)

	out := mustCall(t, s, "image_coordinate_preview", map[string]interface{}{
		"path":             imgPath,
		"coordinates_json": `{"x": 1, "y": 1, "point_size": 60000}`,
	})
	img := decodeImage(t, out)
	if got := red8(img, 1, 1); got != 51 {
		t.Errorf("centre: got %d, want unchanged 51", got)
	}
}

func TestInteractivePicker(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 40, 20, 0, 0, 0)

	first := mustCall(t, s, "image_interactive_picker", map[string]interface{}{"path": imgPath})
	if first["x"] != float64(20) || first["y"] != float64(10) {
		t.Errorf("first pick: got (%v,%v), want centre (20,10)", first["x"], first["y"])
	}
	if red8(decodeImage(t, first["image"]), 20, 10) != 255 {
		t.Error("marker not drawn at centre")
	}

	second := mustCall(t, s, "image_interactive_picker", map[string]interface{}{
		"path":  imgPath,
		"state": first["coordinates_json"],
		"x":     3,
	})
	if second["x"] != float64(3) || second["y"] != float64(10) {
		t.Errorf("second pick: got (%v,%v), want (3,10)", second["x"], second["y"])
	}

	third := mustCall(t, s, "image_interactive_picker", map[string]interface{}{
		"path":  imgPath,
		"state": second["coordinates_json"],
	})
	if third["x"] != float64(3) || third["y"] != float64(10) {
		t.Errorf("third pick: got (%v,%v), want the remembered (3,10)", third["x"], third["y"])
	}
}

func TestInteractivePicker_BadState(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 40, 20, 0, 0, 0)

	out := mustCall(t, s, "image_interactive_picker", map[string]interface{}{"path": imgPath, "state": "garbage"})
	if out["x"] != float64(20) || out["y"] != float64(10) {
		t.Errorf("got (%v,%v), want centre", out["x"], out["y"])
	}
}

func TestImagePreview(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 60, 60, 0, 0, 0)

	out := mustCall(t, s, "image_preview", map[string]interface{}{"path": imgPath, "output_format": "jpg"})
	if out["mime_type"] != "image/jpeg" {
		t.Errorf("mime_type: got %v", out["mime_type"])
	}

	out = mustCall(t, s, "image_preview", map[string]interface{}{"path": imgPath, "show_grid": true, "grid_spacing": 20})
	img := decodeImage(t, out)
	if red8(img, 20, 5) == 0 {
		t.Error("grid line missing")
	}
	if red8(img, 5, 5) != 0 {
		t.Error("pixel off the grid changed")
	}
}
