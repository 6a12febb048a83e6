// Package server implements the MCP (Model Context Protocol) server for image
// overlay and coordinate tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_load: Load image and get metadata
//
// Compositing:
//   - image_overlay: Transform, place and blend an overlay; returns image and mask
//   - image_overlay_preview: Normal-mode preview of a stored overlay placement
//
// Coordinates:
//   - image_coordinate_picker: Clamp a point and return its coordinates record
//   - image_coordinate_preview: Draw a coordinates record as a marker
//   - image_interactive_picker: Mark the current point of a stateful pick
//
// Display:
//   - image_preview: Encode an image for display, optionally gridded
//
// Tools whose results must never be reused carry annotations.volatile.
//
// # Argument Handling
//
// Missing arguments take the configured defaults. Numeric arguments outside
// their domain fail the call. Unknown blend modes, marker colours and output
// formats are replaced (normal, red, the default format) and logged at debug
// level. Malformed coordinate strings never fail a call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
