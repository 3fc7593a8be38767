package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/shelfscan/internal/config"
	httpadapter "github.com/aretw0/shelfscan/pkg/adapters/http"
	"github.com/aretw0/shelfscan/pkg/adapters/mcp"
)

// RunServe exposes a scan controller over HTTP until ctx ends.
func RunServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	streams := httpadapter.NewStreamManager()
	streams.SetLogger(logger)

	rt, err := createController(ctx, cfg, logger, Wiring{
		Presenter: streams,
		Hooks:     streams.Hooks(),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpadapter.NewHandler(rt.Controller, streams,
			httpadapter.WithGatherer(rt.Registry),
			httpadapter.WithLogger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		printSystemMessage(out, "Starting shelfscan server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		printSystemMessage(out, "Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(out, "shelfscan server stopped gracefully")
		return nil
	}
}

// MCPOptions configures RunMCP.
type MCPOptions struct {
	Transport string // "stdio" or "sse"
	Port      int
	// Camera also exposes the configured camera through the camera tools.
	Camera bool
}

// RunMCP serves the MCP tools until ctx ends or stdin closes.
func RunMCP(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts MCPOptions) error {
	serverOpts := []mcp.Option{mcp.WithLogger(logger)}
	if opts.Camera {
		rt, err := createController(ctx, cfg, logger, Wiring{})
		if err != nil {
			return err
		}
		defer rt.Close()
		serverOpts = append(serverOpts, mcp.WithScanner(rt.Controller))
	}
	srv := mcp.NewServer(serverOpts...)

	switch opts.Transport {
	case "stdio":
		logger.Info("Starting shelfscan MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting shelfscan MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
