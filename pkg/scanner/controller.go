package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/camera"
	"github.com/aretw0/shelfscan/pkg/decode"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/isbn"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/roi"
	"github.com/aretw0/shelfscan/pkg/scheduler"
	"github.com/aretw0/shelfscan/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	// ErrNoCodeFound is returned by DecodeStill when the frame holds no valid ISBN barcode.
	ErrNoCodeFound = errors.New("no code found")
	// ErrStillSuperseded is returned by DecodeStill when its result was
	// dropped: the camera stopped mid-decode or another detection won.
	ErrStillSuperseded = errors.New("still decode superseded")
)

// Controller drives one camera through the scan state machine.
// All exported methods are safe for concurrent use.
type Controller struct {
	camera      *camera.Session
	scheduler   ports.FrameScheduler
	decoders    ports.DecoderFactory
	symbologies []domain.Symbology
	normalize   Normalizer
	sink        ports.ResultSink
	presenter   ports.Presenter
	constraints domain.Constraints
	roiOpts     []roi.Option
	registry    *session.Manager
	deviceID    string
	hooks       domain.LifecycleHooks
	errLimiter  *rate.Limiter
	logger      *slog.Logger

	mu           sync.Mutex
	status       domain.Status
	sessionID    string
	lastDetected string
	detections   uint64
	release      ports.UnlockFunc   // device registry hold
	cancelStart  context.CancelFunc // aborts an in-flight StartCamera
	run          *scanRun
	runs         uint64
	outbox       []outboxItem
}

// scanRun is the state of one sampling loop. It is replaced, never reused,
// so a callback holding a stale run can detect that it is stale.
type scanRun struct {
	id      uint64
	ctx     context.Context
	decoder ports.Decoder
	roi     *roi.Tracker
	locked  bool
	cancel  ports.CancelFunc
}

// New creates a controller over the given capture device. Detections are
// handed to sink exactly once each.
func New(capture ports.MediaCapture, sink ports.ResultSink, opts ...Option) *Controller {
	c := &Controller{
		scheduler:   scheduler.NewInterval(scheduler.DefaultFrameInterval),
		decoders:    decode.Factory(),
		symbologies: domain.RetailSymbologies(),
		normalize:   isbn.Normalize,
		sink:        sink,
		constraints: domain.DefaultConstraints(),
		errLimiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger:      logging.NewNop(), // Default to no-op
		status:      domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.camera = camera.NewSession(capture,
		camera.WithConstraints(c.constraints),
		camera.WithLogger(c.logger),
	)
	return c
}

// Snapshot returns the current status report.
func (c *Controller) Snapshot() domain.StatusReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportLocked(c.status.Label())
}

// Status returns the current state.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Capabilities returns the hardware controls of the live track.
func (c *Controller) Capabilities() domain.CapabilitySet {
	return c.camera.Capabilities()
}

// StartCamera acquires the camera stream. It is a no-op unless the controller
// is Idle (or recovering from Error). On failure the controller passes through
// Error back to Idle and the returned error wraps domain.ErrCameraUnavailable.
func (c *Controller) StartCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.status != domain.StatusIdle && c.status != domain.StatusError {
		c.unlock(ctx)
		return nil
	}
	sessionID := uuid.NewString()
	startCtx, cancel := context.WithCancel(ctx)
	c.sessionID = sessionID
	c.cancelStart = cancel
	c.transitionLocked(domain.StatusStarting)
	c.unlock(ctx)
	defer cancel()

	logger := c.logger.With("session_id", sessionID)
	logger.Debug("starting camera")

	var release ports.UnlockFunc
	if c.registry != nil {
		var err error
		release, err = c.registry.Acquire(startCtx, c.deviceID)
		if err != nil {
			return c.failStart(ctx, sessionID, nil, err)
		}
	}

	if err := c.camera.Start(startCtx); err != nil {
		return c.failStart(ctx, sessionID, release, err)
	}
	if _, err := c.camera.Frame(); err != nil {
		return c.failStart(ctx, sessionID, release, err)
	}

	c.mu.Lock()
	if c.sessionID != sessionID || c.status != domain.StatusStarting {
		// StopCamera ran while the stream was being acquired and already
		// released it; the camera may belong to a newer session by now.
		c.unlock(ctx)
		if release != nil {
			_ = release(ctx)
		}
		return fmt.Errorf("%w: stopped while starting", domain.ErrCameraUnavailable)
	}
	c.release = release
	c.cancelStart = nil
	c.transitionLocked(domain.StatusReady)
	c.unlock(ctx)

	logger.Info("camera ready")
	return nil
}

// failStart surfaces a camera acquisition failure: Starting -> Error -> Idle.
// The camera is torn down only while sessionID is still the live session.
func (c *Controller) failStart(ctx context.Context, sessionID string, release ports.UnlockFunc, cause error) error {
	err := cause
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrCameraUnavailable, cause)
	}

	c.mu.Lock()
	if c.sessionID == sessionID && c.status == domain.StatusStarting {
		_ = c.camera.Stop()
		c.cancelStart = nil
		c.transitionLocked(domain.StatusError)
		c.noticeLocked(domain.Notice{
			Level:       domain.NoticeDestructive,
			Title:       "Camera error",
			Description: cause.Error(),
		})
		c.transitionLocked(domain.StatusIdle)
		c.sessionID = ""
	}
	c.unlock(ctx)

	if release != nil {
		_ = release(ctx)
	}
	c.logger.Warn("camera unavailable", "session_id", sessionID, "err", cause)
	return err
}

// StopCamera cancels any scan loop, releases every track and returns to Idle.
// It is idempotent. The returned error reports a teardown failure; the
// controller is Idle either way.
func (c *Controller) StopCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
	}
	c.stopRunLocked()
	release := c.release
	c.release = nil
	if c.status != domain.StatusIdle {
		c.transitionLocked(domain.StatusIdle)
	}
	sessionID := c.sessionID
	c.sessionID = ""
	// Tracks are released under the lock so a concurrent StartCamera
	// cannot have its fresh stream torn down.
	err := c.camera.Stop()
	c.unlock(ctx)

	if release != nil {
		err = errors.Join(err, release(ctx))
	}
	if err != nil {
		c.logger.Error("camera teardown failed", "session_id", sessionID, "err", err)
		return err
	}
	if sessionID != "" {
		c.logger.Info("camera stopped", "session_id", sessionID)
	}
	return nil
}

// Close stops the camera. It makes the controller an io.Closer so teardown
// can be deferred by whatever owns it.
func (c *Controller) Close() error {
	return c.StopCamera(context.Background())
}

// ToggleTorch flips the torch on the live track and returns the new state.
// Unsupported hardware is reported with a notice and leaves the session untouched.
func (c *Controller) ToggleTorch(ctx context.Context) (bool, error) {
	on := !c.camera.Torch()
	err := c.camera.SetTorch(ctx, on)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoStream):
		return false, err
	case errors.Is(err, domain.ErrTorchUnsupported):
		c.mu.Lock()
		c.noticeLocked(domain.Notice{
			Level:       domain.NoticeInfo,
			Title:       "Torch not supported",
			Description: "Your device camera doesn't expose torch control",
		})
		c.unlock(ctx)
		return c.camera.Torch(), err
	default:
		c.mu.Lock()
		c.noticeLocked(domain.Notice{
			Level:       domain.NoticeDestructive,
			Title:       "Torch toggle failed",
			Description: err.Error(),
		})
		c.unlock(ctx)
		c.logger.Warn("torch toggle failed", "err", err)
		return c.camera.Torch(), err
	}

	c.mu.Lock()
	c.presentLocked(c.status.Label())
	c.unlock(ctx)
	return on, nil
}
