package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/image-overlay-mcp/internal/compositor"
	"github.com/ironsheep/image-overlay-mcp/internal/config"
	"github.com/ironsheep/image-overlay-mcp/internal/geometry"
	"github.com/ironsheep/image-overlay-mcp/internal/imaging"
	"github.com/ironsheep/image-overlay-mcp/internal/marker"
	"github.com/ironsheep/image-overlay-mcp/internal/pixel"
)

// defaultCoordinates places the overlay at the origin.
const defaultCoordinates = `[{"x": 0, "y": 0}]`

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_overlay").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.debugf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills missing values from the configured defaults
//  3. Validates numeric ranges; unknown enum names are normalised and logged
//  4. Loads images from cache
//  5. Runs the compositor or marker operation and encodes the result
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_overlay":
		return s.handleImageOverlay(args)
	case "image_overlay_preview":
		return s.handleImageOverlayPreview(args)
	case "image_coordinate_picker":
		return s.handleCoordinatePicker(args)
	case "image_coordinate_preview":
		return s.handleCoordinatePreview(args)
	case "image_interactive_picker":
		return s.handleInteractivePicker(args)
	case "image_preview":
		return s.handleImagePreview(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// outputFormat resolves a requested format, falling back to the configured
// default for empty or unknown names.
func (s *Server) outputFormat(name string) string {
	if name == "" {
		return s.cfg.Defaults.OutputFormat
	}
	if _, ok := imaging.NormalizeFormat(name); !ok {
		s.debugf("unknown output_format %q, using %s", name, s.cfg.Defaults.OutputFormat)
		return s.cfg.Defaults.OutputFormat
	}
	return name
}

// overlayParams applies the configured defaults and validates the result.
func (s *Server) overlayParams(scale *float64, rotation float64, opacity *float64, mode string) (config.OverlayParams, error) {
	p := s.cfg.Defaults.Overlay()
	if scale != nil {
		p.Scale = *scale
	}
	p.Rotation = rotation
	if opacity != nil {
		p.Opacity = *opacity
	}
	if mode != "" {
		p.BlendMode = mode
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.Normalize() {
		s.debugf("unknown blend_mode %q, using normal", mode)
	}
	return p, nil
}

// markerParams applies the configured defaults and validates the result.
func (s *Server) markerParams(color string, size *int) (config.MarkerParams, error) {
	p := s.cfg.Defaults.Marker()
	if color != "" {
		p.Color = color
	}
	if size != nil {
		p.Size = *size
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.Normalize() {
		s.debugf("unknown point_color %q, using red", color)
	}
	return p, nil
}

func requirePath(field, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Overlay ===

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type overlayResult struct {
	Image     *imaging.EncodedImage `json:"image"`
	Mask      *imaging.EncodedImage `json:"mask"`
	Origin    point                 `json:"origin"`
	SizeDelta geometry.SizeDelta    `json:"size_delta"`
	BlendMode string                `json:"blend_mode"`
	Placement string                `json:"placement"`
	SavedTo   string                `json:"saved_to,omitempty"`
}

type imageOverlayArgs struct {
	BasePath       string   `json:"base_path"`
	OverlayPath    string   `json:"overlay_path"`
	Coordinates    json.RawMessage `json:"coordinates"`
	Scale          *float64        `json:"scale"`
	Rotation       float64         `json:"rotation"`
	FlipHorizontal bool            `json:"flip_horizontal"`
	FlipVertical   bool            `json:"flip_vertical"`
	BlendMode      string          `json:"blend_mode"`
	Opacity        *float64        `json:"opacity"`
	Placement      string          `json:"placement"`
	OutputFormat   string          `json:"output_format"`
	OutputPath     string          `json:"output_path"`
}

// positionText returns the position record carried by a coordinates
// argument. Clients send either the JSON text as a string or the list
// itself; anything else is passed through for ParsePosition to reject.
func positionText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return defaultCoordinates
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Server) loadPair(basePath, overlayPath string) (*pixel.Buffer, *pixel.Buffer, error) {
	if err := errors.Join(requirePath("base_path", basePath), requirePath("overlay_path", overlayPath)); err != nil {
		return nil, nil, err
	}
	base, err := s.cache.LoadBuffer(basePath)
	if err != nil {
		return nil, nil, fmt.Errorf("base image: %w", err)
	}
	overlay, err := s.cache.LoadBuffer(overlayPath)
	if err != nil {
		return nil, nil, fmt.Errorf("overlay image: %w", err)
	}
	return base, overlay, nil
}

func (s *Server) handleImageOverlay(args json.RawMessage) (interface{}, error) {
	var a imageOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	op, err := s.overlayParams(a.Scale, a.Rotation, a.Opacity, a.BlendMode)
	if err != nil {
		return nil, err
	}

	coords := positionText(a.Coordinates)
	pos, ok := compositor.ParsePosition(coords)
	if !ok {
		s.debugf("unreadable coordinates %q, placing at (0,0)", coords)
	}

	placement := a.Placement
	if placement == "" {
		placement = s.cfg.Defaults.Placement
	}

	base, overlay, err := s.loadPair(a.BasePath, a.OverlayPath)
	if err != nil {
		return nil, err
	}

	params := compositor.Params{
		Position:  pos,
		Scale:     op.Scale,
		Rotation:  op.Rotation,
		FlipH:     a.FlipHorizontal,
		FlipV:     a.FlipVertical,
		Mode:      op.Mode(),
		Opacity:   op.Opacity,
		Placement: compositor.ParsePlacement(placement),
	}
	res, err := compositor.Composite(base, overlay, params)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Encode(res.Image, s.outputFormat(a.OutputFormat))
	if err != nil {
		return nil, err
	}
	mask, err := imaging.EncodeMask(res.Mask)
	if err != nil {
		return nil, err
	}

	out := &overlayResult{
		Image:     img,
		Mask:      mask,
		Origin:    point{X: res.Origin.X, Y: res.Origin.Y},
		SizeDelta: res.Delta,
		BlendMode: string(params.Mode),
		Placement: params.Placement.String(),
	}
	if a.OutputPath != "" {
		if err := imaging.Save(res.Image, a.OutputPath); err != nil {
			return nil, err
		}
		out.SavedTo = a.OutputPath
	}
	s.debugf("overlay at %v (origin %v, delta %+v, mode %s)", pos, res.Origin, res.Delta, params.Mode)
	return out, nil
}

type imageOverlayPreviewArgs struct {
	BasePath     string          `json:"base_path"`
	OverlayPath  string          `json:"overlay_path"`
	OverlayState json.RawMessage `json:"overlay_state"`
	OutputFormat string          `json:"output_format"`
}

func (s *Server) handleImageOverlayPreview(args json.RawMessage) (interface{}, error) {
	var a imageOverlayPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.OverlayState) == 0 {
		return nil, fmt.Errorf("overlay_state is required")
	}

	d := s.cfg.Defaults.Overlay()
	state := compositor.OverlayState{Scale: d.Scale, Opacity: d.Opacity, BlendMode: d.BlendMode}
	if err := json.Unmarshal(a.OverlayState, &state); err != nil {
		return nil, fmt.Errorf("invalid overlay_state: %w", err)
	}
	op := config.OverlayParams{Scale: state.Scale, Rotation: state.Rotation, Opacity: state.Opacity, BlendMode: state.BlendMode}
	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overlay_state: %w", err)
	}

	base, overlay, err := s.loadPair(a.BasePath, a.OverlayPath)
	if err != nil {
		return nil, err
	}
	preview, err := compositor.Preview(base, overlay, state)
	if err != nil {
		return nil, err
	}
	return imaging.Encode(preview, s.outputFormat(a.OutputFormat))
}

// === Coordinates ===

type pickResult struct {
	X               int                   `json:"x"`
	Y               int                   `json:"y"`
	Width           int                   `json:"width"`
	Height          int                   `json:"height"`
	CoordinatesJSON string                `json:"coordinates_json"`
	Color           *marker.ColorSample   `json:"color,omitempty"`
	Image           *imaging.EncodedImage `json:"image,omitempty"`
}

type coordinatePickerArgs struct {
	Path       string `json:"path"`
	InitialX   int    `json:"initial_x"`
	InitialY   int    `json:"initial_y"`
	PointColor string `json:"point_color"`
	PointSize  *int   `json:"point_size"`
}

func (s *Server) handleCoordinatePicker(args json.RawMessage) (interface{}, error) {
	var a coordinatePickerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mp, err := s.markerParams(a.PointColor, a.PointSize)
	if err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}

	rec := marker.Pick(buf, a.InitialX, a.InitialY, mp.MarkerColor(), mp.Size)
	sample, err := marker.Sample(buf, rec.Coordinate())
	if err != nil {
		return nil, err
	}
	return &pickResult{
		X:               rec.X,
		Y:               rec.Y,
		Width:           rec.Width,
		Height:          rec.Height,
		CoordinatesJSON: rec.Encode(),
		Color:           sample,
	}, nil
}

type coordinatePreviewArgs struct {
	Path            string `json:"path"`
	CoordinatesJSON string `json:"coordinates_json"`
	ShowGrid        bool   `json:"show_grid"`
	GridSpacing     int    `json:"grid_spacing"`
	OutputFormat    string `json:"output_format"`
}

func (s *Server) handleCoordinatePreview(args json.RawMessage) (interface{}, error) {
	var a coordinatePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := marker.Preview(buf, a.CoordinatesJSON)
	if err != nil {
		s.debugf("coordinate preview left image unmarked: %v", err)
	}
	return imaging.Encode(s.withGrid(out, a.ShowGrid, a.GridSpacing), s.outputFormat(a.OutputFormat))
}

type interactivePickerArgs struct {
	Path         string `json:"path"`
	State        string `json:"state"`
	X            *int   `json:"x"`
	Y            *int   `json:"y"`
	PointColor   string `json:"point_color"`
	PointSize    *int   `json:"point_size"`
	OutputFormat string `json:"output_format"`
}

func (s *Server) handleInteractivePicker(args json.RawMessage) (interface{}, error) {
	var a interactivePickerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mp, err := s.markerParams(a.PointColor, a.PointSize)
	if err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}

	session := marker.SessionFromJSON(a.State)
	if a.State != "" && session.Last == nil {
		s.debugf("unreadable picker state %q, starting at centre", a.State)
	}
	if a.X != nil || a.Y != nil {
		cur := image.Pt(buf.Width/2, buf.Height/2)
		if session.Last != nil {
			cur = image.Pt(session.Last.X, session.Last.Y)
		}
		if a.X != nil {
			cur.X = *a.X
		}
		if a.Y != nil {
			cur.Y = *a.Y
		}
		session = session.MoveTo(cur.X, cur.Y)
	}

	marked, rec, _ := session.Pick(buf, mp.MarkerColor(), mp.Size)
	img, err := imaging.Encode(marked, s.outputFormat(a.OutputFormat))
	if err != nil {
		return nil, err
	}
	return &pickResult{
		X:               rec.X,
		Y:               rec.Y,
		Width:           rec.Width,
		Height:          rec.Height,
		CoordinatesJSON: rec.Encode(),
		Image:           img,
	}, nil
}

// === Preview ===

type imagePreviewArgs struct {
	Path         string `json:"path"`
	ShowGrid     bool   `json:"show_grid"`
	GridSpacing  int    `json:"grid_spacing"`
	OutputFormat string `json:"output_format"`
}

func (s *Server) handleImagePreview(args json.RawMessage) (interface{}, error) {
	var a imagePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Encode(s.withGrid(buf, a.ShowGrid, a.GridSpacing), s.outputFormat(a.OutputFormat))
}

func (s *Server) withGrid(buf *pixel.Buffer, show bool, spacing int) *pixel.Buffer {
	if !show {
		return buf
	}
	if spacing == 0 {
		spacing = marker.DefaultGridSpacing
	}
	return marker.Grid(buf, spacing, marker.Red, true)
}
