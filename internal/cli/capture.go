package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/shelfscan/internal/config"
	"github.com/aretw0/shelfscan/pkg/adapters/still"
	"github.com/aretw0/shelfscan/pkg/ports"
)

// openCapture resolves the configured frame source.
func openCapture(cfg config.CameraConfig, logger *slog.Logger) (ports.MediaCapture, error) {
	switch cfg.Source {
	case "webcam":
		return openWebcam(cfg.Device, logger)
	default:
		return openFrames(cfg.Frames)
	}
}

// openFrames replays an image file, or every image of a directory in name order.
func openFrames(path string) (ports.MediaCapture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("frame source: %w", err)
	}
	paths := []string{path}
	if info.IsDir() {
		if paths, err = still.Dir(path); err != nil {
			return nil, fmt.Errorf("frame source: %w", err)
		}
	}
	return still.Open(paths)
}
