package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

func decodeResult(t *testing.T, res *EncodedImage) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	var img image.Image
	switch res.Format {
	case "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		t.Fatalf("failed to decode %s: %v", res.Format, err)
	}
	return img
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"png", "png", true},
		{"PNG", "png", true},
		{"jpg", "jpeg", true},
		{"jpeg", "jpeg", true},
		{"webp", "png", true},
		{"tiff", "png", false},
		{"", "png", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeFormat(%q): got %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEncode_PNGKeepsAlpha(t *testing.T) {
	buf, _ := pixel.Filled(3, 2, 1, 0, 0, 0.5)

	res, err := Encode(buf, "png")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if res.MimeType != "image/png" || res.Width != 3 || res.Height != 2 {
		t.Errorf("metadata: %+v", res)
	}

	img := decodeResult(t, res)
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded type %T, want *image.NRGBA", img)
	}
	if a := nrgba.NRGBAAt(1, 1).A; a != 128 {
		t.Errorf("alpha: got %d, want 128", a)
	}
}

func TestEncode_JPEGDropsAlpha(t *testing.T) {
	buf, _ := pixel.Filled(8, 8, 0, 0, 1, 0)

	res, err := Encode(buf, "jpg")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if res.Format != "jpeg" || res.MimeType != "image/jpeg" {
		t.Errorf("format: %s %s", res.Format, res.MimeType)
	}

	// Fully transparent blue still comes out blue.
	r, g, b, _ := decodeResult(t, res).At(4, 4).RGBA()
	if b>>8 < 200 || r>>8 > 50 || g>>8 > 50 {
		t.Errorf("colour: got (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
}

func TestEncode_WebPFallsBackToPNG(t *testing.T) {
	buf, _ := pixel.Filled(2, 2, 0.5, 0.5, 0.5)
	res, err := Encode(buf, "webp")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if res.Format != "png" {
		t.Errorf("Format: got %s, want png", res.Format)
	}
	decodeResult(t, res)
}

func TestEncode_Gray(t *testing.T) {
	buf, _ := pixel.Filled(2, 2, 1)
	res, err := Encode(buf, "png")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, ok := decodeResult(t, res).(*image.Gray); !ok {
		t.Error("gray buffer should encode as a gray PNG")
	}
}

func TestEncode_Invalid(t *testing.T) {
	if _, err := Encode(pixel.MustNew(0, 0, 3), "png"); err == nil {
		t.Error("Encode should refuse an empty buffer")
	}
	bad := &pixel.Buffer{Width: 2, Height: 2, Channels: 3, Pix: make([]float32, 5)}
	if _, err := Encode(bad, "png"); err == nil {
		t.Error("Encode should refuse a buffer with the wrong pixel count")
	}
}

func TestEncodeMask(t *testing.T) {
	mask, _ := pixel.Filled(4, 4, 0)
	mask.Set(1, 1, 0, 1)

	res, err := EncodeMask(mask)
	if err != nil {
		t.Fatalf("EncodeMask failed: %v", err)
	}
	gray, ok := decodeResult(t, res).(*image.Gray)
	if !ok {
		t.Fatal("mask should decode as *image.Gray")
	}
	if gray.GrayAt(1, 1).Y != 255 || gray.GrayAt(0, 0).Y != 0 {
		t.Errorf("mask values: %d %d", gray.GrayAt(1, 1).Y, gray.GrayAt(0, 0).Y)
	}

	rgb, _ := pixel.Filled(4, 4, 0, 0, 0)
	if _, err := EncodeMask(rgb); err == nil {
		t.Error("EncodeMask should refuse a 3-channel buffer")
	}
}

func TestSave(t *testing.T) {
	buf, _ := pixel.Filled(5, 4, 0, 1, 0, 1)
	path := filepath.Join(t.TempDir(), "out.png")

	if err := Save(buf, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := NewImageCache().LoadBuffer(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Width != 5 || loaded.Height != 4 || loaded.At(2, 2, 1) != 1 {
		t.Errorf("reloaded: %dx%d green=%v", loaded.Width, loaded.Height, loaded.At(2, 2, 1))
	}
}
