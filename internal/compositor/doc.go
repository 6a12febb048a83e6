// Package compositor places a transformed overlay onto a base image and
// derives the overlay's coverage mask.
//
// # Pipeline
//
// Composite runs these steps for one base/overlay pair:
//
//  1. Scale, flip and rotate the overlay (package geometry) and shift the
//     placement origin by the rotation correction.
//  2. Give base and overlay an alpha channel (opaque when synthesized).
//  3. When opacity is below 1, replace the overlay alpha with the 8-bit
//     quantized opacity.
//  4. Composite the overlay over a copy of the base ("source over").
//  5. For any mode other than normal, paste the overlay into an otherwise
//     zero canvas-sized buffer and blend it with the base over the whole
//     canvas (package blend). That result replaces step 4's.
//  6. Build the mask from the overlay alpha at the same origin.
//
// # Placement
//
// Placement origins may be negative or past the canvas edge; every step
// clips to the overlapping rectangle. PlaceClamp keeps the older behaviour
// of clamping the origin into the canvas for steps 5 and 6 only.
//
// # Errors
//
// Malformed parameters never fail: positions default to (0,0), unknown blend
// modes composite as normal, and degenerate scales produce the base
// unchanged. Only buffers violating the shape invariant return an error.
package compositor
