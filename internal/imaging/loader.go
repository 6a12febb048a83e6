package imaging

import (
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Once an image is loaded, later Load calls for the same path return the
// cached copy without disk I/O. Decoding goes through bild's imgio, which
// handles PNG and JPEG; GIF is registered here as well.
//
// A cache created with NewPassthroughCache never stores anything, so every
// Load reads the file again. The server uses it when caching is disabled in
// its configuration.
//
// # Memory Management
//
// Cached images remain in memory until removed via Evict or Clear.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	buf, err := cache.LoadBuffer("/path/to/base.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu       sync.RWMutex
	images   map[string]image.Image
	disabled bool
}

// NewImageCache creates an empty cache that keeps decoded images.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// NewPassthroughCache creates a cache that decodes on every Load.
func NewPassthroughCache() *ImageCache {
	return &ImageCache{
		images:   make(map[string]image.Image),
		disabled: true,
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached under the exact path string provided, so relative and
// absolute paths to one file are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	if !c.disabled {
		c.mu.Lock()
		c.images[path] = img
		c.mu.Unlock()
	}

	return img, nil
}

// LoadBuffer loads path and converts it into a pixel buffer. Grayscale files
// give 1 channel, files that can carry alpha give 4, the rest give 3.
func (c *ImageCache) LoadBuffer(path string) (*pixel.Buffer, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	buf := pixel.FromImage(img)
	if buf.Empty() {
		return nil, fmt.Errorf("image %s has no pixels: %w", path, pixel.ErrInvalidShape)
	}
	return buf, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes one image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", taken from the extension.
	Format string `json:"format"`

	// Channels is the channel count the image loads with: 1, 3 or 4.
	Channels int `json:"channels"`

	// ColorDepth is "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports whether the loaded buffer carries alpha.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and describes it.
//
// # Format Detection
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - Other extensions -> "unknown"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		colorDepth = "16-bit"
	}

	buf := pixel.FromImage(img)
	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Channels:      buf.Channels,
		ColorDepth:    colorDepth,
		HasAlpha:      buf.HasAlpha(),
		FileSizeBytes: stat.Size(),
	}, nil
}
