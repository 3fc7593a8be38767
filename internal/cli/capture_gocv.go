//go:build gocv

package cli

import (
	"log/slog"
	"strconv"

	"github.com/aretw0/shelfscan/pkg/adapters/gocv"
	"github.com/aretw0/shelfscan/pkg/ports"
)

// openWebcam opens a device index ("0") or a capture URL/path through OpenCV.
func openWebcam(device string, logger *slog.Logger) (ports.MediaCapture, error) {
	if index, err := strconv.Atoi(device); err == nil {
		return gocv.New(index, gocv.WithLogger(logger)), nil
	}
	return gocv.New(device, gocv.WithLogger(logger)), nil
}
