// Package imaging is the file and encoding boundary of the server.
//
// It decodes image files into pixel buffers, caches the decoded images, and
// encodes results back into base64 PNG or JPEG for MCP responses. Nothing in
// here composites or draws; that lives in the compositor and marker
// packages.
//
// # Channel Layout
//
// Loaded buffers keep the layout of the source file where they can:
//   - Grayscale files load with 1 channel
//   - Files whose color model can carry alpha (PNG, GIF) load with 4
//   - JPEG and other opaque models load with 3
//
// # Output Formats
//
// Encode accepts "png", "jpg", "jpeg" and "webp":
//   - PNG keeps alpha
//   - JPEG drops alpha
//   - WebP has no encoder and is written as PNG
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Encode and Save are stateless.
package imaging
