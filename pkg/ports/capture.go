package ports

import (
	"context"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// MediaCapture is the platform media-capture collaborator.
type MediaCapture interface {
	// RequestStream acquires a stream matching the constraints.
	// It is the only operation that touches real hardware.
	RequestStream(ctx context.Context, constraints domain.Constraints) (Stream, error)
}

// Stream is an acquired capture stream.
type Stream interface {
	// Tracks returns the video tracks of the stream. The first one is sampled.
	Tracks() []Track
}

// Track is a single video track.
type Track interface {
	// Stop releases the underlying hardware. It must be safe to call twice.
	Stop() error

	// Capabilities returns the raw capability map reported by the device
	// (e.g. {"torch": true, "zoom": {"min": 1, "max": 4}}).
	Capabilities() map[string]any

	// ApplyConstraints applies live constraints such as torch.
	ApplyConstraints(ctx context.Context, constraints domain.TrackConstraints) error

	// ReadFrame returns the most recent frame. While the camera warms up the
	// frame may carry zero dimensions.
	ReadFrame() (*domain.Frame, error)
}
