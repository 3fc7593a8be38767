package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/shelfscan"
	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/adapters/still"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/isbn"
	"github.com/aretw0/shelfscan/pkg/scanner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Scanner is the part of the scan controller exposed to agents.
type Scanner interface {
	StartCamera(ctx context.Context) error
	StopCamera(ctx context.Context) error
	DecodeStill(ctx context.Context) (string, error)
	Snapshot() domain.StatusReport
}

var _ Scanner = (*scanner.Controller)(nil)

// NormalizeArgs are the arguments of normalize_isbn.
type NormalizeArgs struct {
	Text string `json:"text"`
}

// NormalizeResponse reports the validation of one candidate string.
type NormalizeResponse struct {
	Valid         bool   `json:"valid" jsonschema_description:"Whether the text is a structurally valid ISBN"`
	ISBN          string `json:"isbn,omitempty" jsonschema_description:"The canonical ISBN-13 or ISBN-10"`
	ISBN13        string `json:"isbn13,omitempty" jsonschema_description:"The ISBN-13 form"`
	ChecksumValid bool   `json:"checksum_valid" jsonschema_description:"Whether the check digit is correct"`
}

// DecodeArgs are the arguments of decode_image. Exactly one source is used:
// Path wins over Data.
type DecodeArgs struct {
	Path   string `json:"path,omitempty"`
	Data   string `json:"data,omitempty"`
	Strict bool   `json:"strict,omitempty"`
}

// DecodeResponse aligns with the HTTP adapter's /decode payload.
type DecodeResponse struct {
	Found  bool   `json:"found" jsonschema_description:"Whether a valid ISBN barcode was read"`
	ISBN   string `json:"isbn,omitempty" jsonschema_description:"The normalised ISBN"`
	Raw    string `json:"raw,omitempty" jsonschema_description:"Decoded barcode text, even when not an ISBN"`
	Format string `json:"format,omitempty" jsonschema_description:"Barcode symbology"`
}

// Server exposes ISBN tools as an MCP Server.
type Server struct {
	scanner   Scanner
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithScanner also exposes the live camera through the camera tools and the status resource.
func WithScanner(sc Scanner) Option {
	return func(s *Server) {
		s.scanner = sc
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("shelfscan-mcp", strings.TrimSpace(shelfscan.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.scanner != nil {
		s.registerScannerTools()
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying server, for embedding in another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: normalize_isbn
	normalizeTool := mcp.NewTool("normalize_isbn",
		mcp.WithDescription("Validate and normalise a candidate ISBN (hyphens and labels are stripped)."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to validate, e.g. a decoded barcode or a typed ISBN")),
		mcp.WithOutputSchema[NormalizeResponse](),
	)
	s.mcpServer.AddTool(normalizeTool, mcp.NewStructuredToolHandler(s.handleNormalize))

	// TOOL: decode_image
	decodeTool := mcp.NewTool("decode_image",
		mcp.WithDescription("Read an ISBN barcode from an image file or base64 encoded image bytes."),
		mcp.WithString("path", mcp.Description("Path of an image file readable by the server")),
		mcp.WithString("data", mcp.Description("Base64 encoded image (png, jpeg, gif, bmp, tiff, webp)")),
		mcp.WithBoolean("strict", mcp.Description("Reject ISBNs with a wrong check digit")),
		mcp.WithOutputSchema[DecodeResponse](),
	)
	s.mcpServer.AddTool(decodeTool, mcp.NewStructuredToolHandler(s.handleDecodeImage))
}

func (s *Server) registerScannerTools() {
	// TOOL: camera
	s.mcpServer.AddTool(mcp.NewTool("camera",
		mcp.WithDescription("Start or stop the scanner camera."),
		mcp.WithString("action", mcp.Required(), mcp.Enum("start", "stop")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var err error
		switch action := request.GetString("action", ""); action {
		case "start":
			err = s.scanner.StartCamera(ctx)
		case "stop":
			err = s.scanner.StopCamera(ctx)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.statusResult()
	})

	// TOOL: capture_still
	s.mcpServer.AddTool(mcp.NewTool("capture_still",
		mcp.WithDescription("Decode the current camera frame once. The camera must be started."),
		mcp.WithOutputSchema[DecodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleCaptureStill))
}

func (s *Server) statusResult() (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.scanner.Snapshot())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// Handler methods for structured tools

func (s *Server) handleNormalize(ctx context.Context, request mcp.CallToolRequest, args NormalizeArgs) (NormalizeResponse, error) {
	id, ok := isbn.Normalize(args.Text)
	if !ok {
		return NormalizeResponse{}, nil
	}
	resp := NormalizeResponse{
		Valid:         true,
		ISBN:          id,
		ChecksumValid: isbn.ValidChecksum(id),
	}
	resp.ISBN13, _ = isbn.ToISBN13(id)
	return resp, nil
}

func (s *Server) handleDecodeImage(ctx context.Context, request mcp.CallToolRequest, args DecodeArgs) (DecodeResponse, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case args.Path != "":
		img, err = still.Load(args.Path)
	case args.Data != "":
		var data []byte
		data, err = base64.StdEncoding.DecodeString(args.Data)
		if err != nil {
			return DecodeResponse{}, fmt.Errorf("invalid base64 data: %w", err)
		}
		img, err = still.Decode(data)
	default:
		return DecodeResponse{}, errors.New("either path or data is required")
	}
	if err != nil {
		return DecodeResponse{}, err
	}

	opts := []shelfscan.Option{shelfscan.WithTryHarder()}
	if args.Strict {
		opts = append(opts, shelfscan.WithStrictChecksum())
	}
	res, err := shelfscan.DecodeImage(img, opts...)
	if err != nil {
		s.logger.Warn("MCP decode_image failed", "err", err)
		return DecodeResponse{}, fmt.Errorf("decode failed: %w", err)
	}
	return DecodeResponse{
		Found:  res.Found(),
		ISBN:   res.ISBN,
		Raw:    res.Raw,
		Format: string(res.Format),
	}, nil
}

func (s *Server) handleCaptureStill(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DecodeResponse, error) {
	id, err := s.scanner.DecodeStill(ctx)
	if errors.Is(err, scanner.ErrNoCodeFound) {
		return DecodeResponse{}, nil
	}
	if err != nil {
		return DecodeResponse{}, err
	}
	return DecodeResponse{Found: true, ISBN: id}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: shelfscan://status
	s.mcpServer.AddResource(mcp.NewResource("shelfscan://status", "Scanner Status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.scanner.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode status: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "shelfscan://status",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
