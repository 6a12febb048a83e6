package server

import (
	"github.com/ironsheep/image-overlay-mcp/internal/blend"
	"github.com/ironsheep/image-overlay-mcp/internal/marker"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Annotations *ToolAnnotations       `json:"annotations,omitempty"`
}

// ToolAnnotations are behaviour hints for clients.
type ToolAnnotations struct {
	ReadOnlyHint bool `json:"readOnlyHint"`

	// Volatile marks tools whose result must not be reused from an earlier
	// call with the same arguments; clients should always re-run them.
	Volatile bool `json:"volatile,omitempty"`
}

var outputFormats = []string{"png", "jpg", "webp"}

func pathProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func markerProps(props map[string]interface{}) map[string]interface{} {
	props["point_color"] = map[string]interface{}{
		"type":        "string",
		"enum":        marker.ColorNames(),
		"description": "Marker colour. Unknown names draw red. Default red",
	}
	props["point_size"] = map[string]interface{}{
		"type":        "integer",
		"minimum":     marker.MinSize,
		"maximum":     marker.MaxSize,
		"description": "Marker radius in pixels (1-50). Default 10",
	}
	return props
}

func gridProps(props map[string]interface{}) map[string]interface{} {
	props["show_grid"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw a labelled coordinate grid over the result. Default false",
	}
	props["grid_spacing"] = map[string]interface{}{
		"type":        "integer",
		"minimum":     marker.MinGridSpacing,
		"description": "Grid spacing in pixels. Default 50",
	}
	return props
}

func formatProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        outputFormats,
		"description": "Encoding of the returned image. webp is written as PNG. Default png",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and channel layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
			Annotations: &ToolAnnotations{ReadOnlyHint: true},
		},
		{
			Name: "image_overlay",
			Description: "Composite an overlay image onto a base image. The overlay is scaled, flipped and rotated " +
				"(canvas expands to fit), placed so its centre stays put under rotation, then alpha-composited or " +
				"blended with one of ten blend modes. Returns the composite and the overlay's coverage mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"base_path":    pathProp("Absolute path to the base image"),
					"overlay_path": pathProp("Absolute path to the overlay image"),
					"coordinates": map[string]interface{}{
						"type":        "string",
						"description": `Placement as a JSON list; only the first entry is used, e.g. [{"x": 10, "y": 20}]. The list may also be sent unquoted. Malformed input places at (0,0)`,
						"default":     `[{"x": 0, "y": 0}]`,
					},
					"scale": map[string]interface{}{
						"type":             "number",
						"exclusiveMinimum": 0.1,
						"maximum":          10.0,
						"description":      "Scale factor. Default 1.0",
					},
					"rotation": map[string]interface{}{
						"type":        "number",
						"minimum":     -360.0,
						"maximum":     360.0,
						"description": "Rotation in degrees, counter-clockwise. Default 0",
					},
					"flip_horizontal": map[string]interface{}{
						"type":        "boolean",
						"description": "Mirror the overlay left-right before rotating",
					},
					"flip_vertical": map[string]interface{}{
						"type":        "boolean",
						"description": "Mirror the overlay top-bottom before rotating",
					},
					"blend_mode": map[string]interface{}{
						"type":        "string",
						"enum":        blend.Names(),
						"description": "Blend mode. Non-normal modes recompute the whole canvas. Unknown names use normal",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"minimum":     0.0,
						"maximum":     1.0,
						"description": "Overlay opacity. Below 1 it replaces the overlay's own alpha. Default 1.0",
					},
					"placement": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"clip", "clamp"},
						"description": "How an origin outside the base is handled: clip crops consistently, clamp pins the blend and mask to the edge",
					},
					"output_format": formatProp(),
					"output_path":   pathProp("Optional path to also save the composite as PNG"),
				},
				"required": []string{"base_path", "overlay_path"},
			},
			Annotations: &ToolAnnotations{Volatile: true},
		},
		{
			Name: "image_overlay_preview",
			Description: "Render a quick preview of an overlay placement in normal mode. Placement and rotation " +
				"correction match image_overlay, so the preview lines up with the final render.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"base_path":    pathProp("Absolute path to the base image"),
					"overlay_path": pathProp("Absolute path to the overlay image"),
					"overlay_state": map[string]interface{}{
						"type":        "object",
						"description": "Stored placement: position_x, position_y, scale, rotation, blend_mode, opacity",
						"properties": map[string]interface{}{
							"position_x": map[string]interface{}{"type": "integer"},
							"position_y": map[string]interface{}{"type": "integer"},
							"scale":      map[string]interface{}{"type": "number"},
							"rotation":   map[string]interface{}{"type": "number"},
							"blend_mode": map[string]interface{}{"type": "string"},
							"opacity":    map[string]interface{}{"type": "number"},
						},
					},
					"output_format": formatProp(),
				},
				"required": []string{"base_path", "overlay_path", "overlay_state"},
			},
			Annotations: &ToolAnnotations{ReadOnlyHint: true},
		},
		{
			Name: "image_coordinate_picker",
			Description: "Pick a point on an image. The point is clamped into the image and returned as x, y and a " +
				"coordinates_json record for image_coordinate_preview, along with the colour under it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": markerProps(map[string]interface{}{
					"path": pathProp("Absolute path to the image file"),
					"initial_x": map[string]interface{}{
						"type":        "integer",
						"description": "Requested X coordinate; clamped to the image",
					},
					"initial_y": map[string]interface{}{
						"type":        "integer",
						"description": "Requested Y coordinate; clamped to the image",
					},
				}),
				"required": []string{"path"},
			},
			Annotations: &ToolAnnotations{ReadOnlyHint: true},
		},
		{
			Name:        "image_coordinate_preview",
			Description: "Draw the marker described by a coordinates_json record onto an image. A malformed record returns the image unmarked.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": gridProps(map[string]interface{}{
					"path": pathProp("Absolute path to the image file"),
					"coordinates_json": map[string]interface{}{
						"type":        "string",
						"description": "Record from image_coordinate_picker or image_interactive_picker",
					},
					"output_format": formatProp(),
				}),
				"required": []string{"path", "coordinates_json"},
			},
			Annotations: &ToolAnnotations{ReadOnlyHint: true},
		},
		{
			Name: "image_interactive_picker",
			Description: "Mark the current point of an interactive pick. Pass the previous coordinates_json as state " +
				"to continue from the last point; without state the marker starts at the image centre. Optional x and y move the point.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": markerProps(map[string]interface{}{
					"path": pathProp("Absolute path to the image file"),
					"state": map[string]interface{}{
						"type":        "string",
						"description": "coordinates_json returned by the previous call",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Move the point to this X before marking",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Move the point to this Y before marking",
					},
					"output_format": formatProp(),
				}),
				"required": []string{"path"},
			},
			Annotations: &ToolAnnotations{Volatile: true},
		},
		{
			Name:        "image_preview",
			Description: "Return an image file encoded for display, optionally with a coordinate grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": gridProps(map[string]interface{}{
					"path":          pathProp("Absolute path to the image file"),
					"output_format": formatProp(),
				}),
				"required": []string{"path"},
			},
			Annotations: &ToolAnnotations{ReadOnlyHint: true, Volatile: true},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
