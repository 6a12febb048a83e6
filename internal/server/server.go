package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/image-overlay-mcp/internal/config"
	"github.com/ironsheep/image-overlay-mcp/internal/imaging"
)

// Name is reported in the initialize handshake.
const Name = "image-overlay-mcp"

// Version is set by the entry point from its build information.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.ImageCache
	cfg   *config.Config
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server using cfg. A nil cfg uses config.Default().
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	cache := imaging.NewImageCache()
	if !cfg.CacheEnabled() {
		cache = imaging.NewPassthroughCache()
	}
	return &Server{
		cache: cache,
		cfg:   cfg,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve handles one request per line from r until EOF, writing responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		s.debugf("-> %s id=%v", req.Method, req.ID)
		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// debugf logs only when the configured level is debug.
func (s *Server) debugf(format string, args ...interface{}) {
	if s.cfg.Debug() {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}
