package scanner

import (
	"log/slog"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/isbn"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/roi"
	"github.com/aretw0/shelfscan/pkg/session"
	"golang.org/x/time/rate"
)

// Option configures the Controller.
type Option func(*Controller)

// Normalizer validates decoded text and returns the canonical ISBN.
type Normalizer func(raw string) (string, bool)

// WithScheduler replaces the default 16ms interval scheduler.
func WithScheduler(s ports.FrameScheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithDecoderFactory sets how decoders are built for each scan run and for still decodes.
func WithDecoderFactory(f ports.DecoderFactory) Option {
	return func(c *Controller) {
		c.decoders = f
	}
}

// WithSymbologies restricts the decoder hints. Defaults to the retail set.
func WithSymbologies(formats ...domain.Symbology) Option {
	return func(c *Controller) {
		c.symbologies = formats
	}
}

// WithNormalizer replaces the ISBN normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(c *Controller) {
		c.normalize = n
	}
}

// WithStrictChecksum makes the controller reject detections whose ISBN check digit is wrong.
func WithStrictChecksum(strict bool) Option {
	return func(c *Controller) {
		if strict {
			c.normalize = isbn.NormalizeStrict
		} else {
			c.normalize = isbn.Normalize
		}
	}
}

// WithPresenter sets the UI/status collaborator.
func WithPresenter(p ports.Presenter) Option {
	return func(c *Controller) {
		c.presenter = p
	}
}

// WithConstraints sets the capture request.
func WithConstraints(constraints domain.Constraints) Option {
	return func(c *Controller) {
		c.constraints = constraints
	}
}

// WithROIFractions sets the centered region size as fractions of the frame.
func WithROIFractions(width, height float64) Option {
	return func(c *Controller) {
		c.roiOpts = append(c.roiOpts, roi.WithFractions(width, height))
	}
}

// WithDeviceRegistry makes the controller hold deviceID in the registry
// for as long as the camera is live.
func WithDeviceRegistry(registry *session.Manager, deviceID string) Option {
	return func(c *Controller) {
		c.registry = registry
		c.deviceID = deviceID
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithDecodeErrorRate bounds how often transient decode errors are logged.
// Hooks still observe every error.
func WithDecodeErrorRate(limit rate.Limit, burst int) Option {
	return func(c *Controller) {
		c.errLimiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}
