// Package pixel defines the normalized float image buffer shared by the
// compositing engine.
//
// A Buffer holds height x width x channels samples in [0,1] with 1 (gray),
// 3 (RGB) or 4 (RGBA, straight alpha) channels. Every operation in this
// package returns a new buffer; callers' buffers are never modified except
// through the explicit Set, Fill and Paste methods.
//
// # Coordinate System
//
// (0,0) is the top-left pixel, X grows rightward and Y grows downward, the
// same convention as image.Image.
//
// # Conversion
//
// FromImage and ToNRGBA bridge to the standard image package. Conversion to
// 8-bit storage rounds half up (see Quantize).
package pixel
