//go:build !gocv

package cli

import (
	"errors"
	"log/slog"

	"github.com/aretw0/shelfscan/pkg/ports"
)

var errNoWebcam = errors.New("webcam support requires building with -tags gocv")

func openWebcam(device string, logger *slog.Logger) (ports.MediaCapture, error) {
	return nil, errNoWebcam
}
