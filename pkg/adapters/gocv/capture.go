//go:build gocv

package gocv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"gocv.io/x/gocv"
)

var errClosed = errors.New("video capture closed")

// Capture opens a local webcam through OpenCV.
type Capture struct {
	device any
	logger *slog.Logger
}

// Option configures the Capture.
type Option func(*Capture)

// WithLogger configures a logger for the Capture.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Capture) {
		c.logger = logger
	}
}

// New returns a capture for device, either an index (0) or a path/URL.
func New(device any, opts ...Option) *Capture {
	c := &Capture{device: device, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestStream opens the device. FacingMode is ignored: the device
// identifier already selects the camera.
func (c *Capture) RequestStream(ctx context.Context, constraints domain.Constraints) (ports.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return nil, fmt.Errorf("open video capture %v: %w", c.device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video capture %v: device not opened", c.device)
	}
	if constraints.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
	}
	if constraints.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))
	}
	if constraints.FocusMode == domain.DefaultFocusMode {
		vc.Set(gocv.VideoCaptureAutoFocus, 1)
	}
	c.logger.Debug("Webcam opened", "device", c.device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight))

	mat := gocv.NewMat()
	return &stream{track: &track{vc: vc, mat: &mat}}, nil
}

type stream struct {
	track *track
}

func (s *stream) Tracks() []ports.Track {
	return []ports.Track{s.track}
}

type track struct {
	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat *gocv.Mat // reused between reads
	seq uint64
}

func (t *track) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.vc == nil {
		return nil
	}
	err := t.vc.Close()
	t.mat.Close()
	t.vc = nil
	return err
}

// Capabilities is empty: OpenCV exposes no portable torch or zoom control.
func (t *track) Capabilities() map[string]any {
	return map[string]any{"torch": false}
}

func (t *track) ApplyConstraints(ctx context.Context, constraints domain.TrackConstraints) error {
	if constraints.Torch != nil {
		return domain.ErrTorchUnsupported
	}
	return nil
}

// ReadFrame grabs the next frame. An empty grab is reported as a warm-up
// frame with zero dimensions.
func (t *track) ReadFrame() (*domain.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.vc == nil {
		return nil, errClosed
	}
	t.seq++
	if ok := t.vc.Read(t.mat); !ok || t.mat.Empty() {
		return &domain.Frame{Sequence: t.seq}, nil
	}
	img, err := t.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return domain.NewFrame(img, t.seq), nil
}
