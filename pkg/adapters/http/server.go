package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/shelfscan"
	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/adapters/still"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/scanner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxUploadBytes bounds the body of POST /decode.
const maxUploadBytes = 16 << 20

// Scanner defines the interface for the scan loop controller.
type Scanner interface {
	StartCamera(ctx context.Context) error
	StopCamera(ctx context.Context) error
	StartScan(ctx context.Context) error
	StopScan(ctx context.Context) error
	DecodeStill(ctx context.Context) (string, error)
	ToggleTorch(ctx context.Context) (bool, error)
	Snapshot() domain.StatusReport
	Capabilities() domain.CapabilitySet
}

var _ Scanner = (*scanner.Controller)(nil)

// Server exposes a Scanner over HTTP.
type Server struct {
	Scanner  Scanner
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the scanner. Streams must be the
// presenter the scanner was built with, so status changes reach /events.
func NewHandler(sc Scanner, streams *StreamManager, opts ...Option) http.Handler {
	server := &Server{
		Scanner:  sc,
		Streams:  streams,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/status", server.GetStatus)
	r.Get("/capabilities", server.GetCapabilities)
	r.Get("/events", server.SubscribeEvents)
	r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	r.Post("/decode", server.DecodeUpload)

	r.Route("/camera", func(r chi.Router) {
		r.Post("/start", server.command(sc.StartCamera))
		r.Post("/stop", server.command(sc.StopCamera))
	})
	r.Route("/scan", func(r chi.Router) {
		r.Post("/start", server.command(sc.StartScan))
		r.Post("/stop", server.command(sc.StopScan))
		r.Post("/still", server.DecodeStill)
	})
	r.Post("/torch", server.ToggleTorch)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "shelfscan-http",
		"version": strings.TrimSpace(shelfscan.Version),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Scanner.Snapshot())
}

// GetCapabilities handles the GET /capabilities request.
func (s *Server) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Scanner.Capabilities())
}

// command adapts a state machine operation to a POST handler that answers with the new status.
func (s *Server) command(op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.Scanner.Snapshot())
	}
}

type stillResponse struct {
	Found  bool                `json:"found"`
	ISBN   string              `json:"isbn,omitempty"`
	Status domain.StatusReport `json:"status"`
}

// DecodeStill handles the POST /scan/still request.
func (s *Server) DecodeStill(w http.ResponseWriter, r *http.Request) {
	id, err := s.Scanner.DecodeStill(r.Context())
	if err != nil && !errors.Is(err, scanner.ErrNoCodeFound) {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stillResponse{
		Found:  err == nil,
		ISBN:   id,
		Status: s.Scanner.Snapshot(),
	})
}

// ToggleTorch handles the POST /torch request.
func (s *Server) ToggleTorch(w http.ResponseWriter, r *http.Request) {
	on, err := s.Scanner.ToggleTorch(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"torch": on})
}

type decodeResponse struct {
	Found bool   `json:"found"`
	ISBN  string `json:"isbn,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// DecodeUpload handles the POST /decode request: the body is an image file,
// decoded once without touching the camera.
func (s *Server) DecodeUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("DecodeUpload: Invalid request body", "err", err)
		return
	}
	img, err := still.Decode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	res, err := shelfscan.DecodeImage(img)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decodeResponse{Found: res.ISBN != "", ISBN: res.ISBN, Raw: res.Raw})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrDeviceBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNoStream),
		errors.Is(err, scanner.ErrStillSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTorchUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}
