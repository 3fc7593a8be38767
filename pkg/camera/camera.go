// Package camera manages the lifecycle of a single capture stream.
package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Session owns at most one capture stream at a time.
// Safe for concurrent use.
type Session struct {
	capture     ports.MediaCapture
	constraints domain.Constraints
	logger      *slog.Logger

	mu       sync.Mutex
	stream   ports.Stream
	track    ports.Track
	torch    bool
	starting bool
	pending  uint64 // epoch of the in-flight request while starting
	epoch    uint64 // bumped by Stop; a Start that outlives it releases its stream
}

// Option configures the Session.
type Option func(*Session)

// WithConstraints overrides the default capture request.
func WithConstraints(c domain.Constraints) Option {
	return func(s *Session) {
		s.constraints = c
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an inactive session over the given media-capture collaborator.
func NewSession(capture ports.MediaCapture, opts ...Option) *Session {
	s := &Session{
		capture:     capture,
		constraints: domain.DefaultConstraints(),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start acquires the stream. It is a no-op when a stream is already active or
// being acquired since the last Stop. Any acquisition failure is reported as
// domain.ErrCameraUnavailable. A Stop issued while the request is in flight
// wins: the late stream is released, and a Start after that Stop issues a
// fresh request instead of waiting on the doomed one.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stream != nil || (s.starting && s.pending == s.epoch) {
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	epoch := s.epoch
	s.pending = epoch
	s.mu.Unlock()

	stream, err := s.capture.RequestStream(ctx, s.constraints)

	s.mu.Lock()
	if s.pending == epoch {
		s.starting = false
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", domain.ErrCameraUnavailable, err)
	}
	tracks := stream.Tracks()
	if epoch != s.epoch || len(tracks) == 0 {
		stopped := epoch != s.epoch
		s.mu.Unlock()
		_ = releaseTracks(tracks)
		if stopped {
			return fmt.Errorf("%w: stopped while starting", domain.ErrCameraUnavailable)
		}
		return fmt.Errorf("%w: stream has no video track", domain.ErrCameraUnavailable)
	}

	s.stream = stream
	s.track = tracks[0]
	s.torch = false
	s.mu.Unlock()

	s.logger.Debug("camera stream acquired",
		"facing_mode", s.constraints.FacingMode,
		"width", s.constraints.Width,
		"height", s.constraints.Height,
	)
	return nil
}

// Stop releases every track of the stream. Safe to call when already stopped.
func (s *Session) Stop() error {
	s.mu.Lock()
	stream := s.stream
	s.epoch++
	s.stream = nil
	s.track = nil
	s.torch = false
	s.mu.Unlock()

	if stream == nil {
		return nil
	}

	if err := releaseTracks(stream.Tracks()); err != nil {
		return fmt.Errorf("failed to release camera: %w", err)
	}
	s.logger.Debug("camera stream released")
	return nil
}

// Active reports whether a stream is held.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Torch reports the last torch state applied through SetTorch.
func (s *Session) Torch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.torch
}

// Capabilities returns the controls exposed by the active track, or the empty set.
func (s *Session) Capabilities() domain.CapabilitySet {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()

	if track == nil {
		return domain.CapabilitySet{}
	}
	caps, err := DecodeCapabilities(track.Capabilities())
	if err != nil {
		s.logger.Warn("skipping unreadable track capabilities", "err", err)
	}
	return caps
}

// SetTorch switches the torch. It returns domain.ErrTorchUnsupported when the
// track does not expose torch control; the session stays usable either way.
func (s *Session) SetTorch(ctx context.Context, on bool) error {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()

	if track == nil {
		return domain.ErrNoStream
	}
	if !s.Capabilities().SupportsTorch() {
		return domain.ErrTorchUnsupported
	}
	if err := track.ApplyConstraints(ctx, domain.TrackConstraints{Torch: &on}); err != nil {
		return fmt.Errorf("apply torch constraint: %w", err)
	}

	s.mu.Lock()
	if s.track == track {
		s.torch = on
	}
	s.mu.Unlock()
	return nil
}

// Frame reads the current frame of the active track.
func (s *Session) Frame() (*domain.Frame, error) {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()

	if track == nil {
		return nil, domain.ErrNoStream
	}
	return track.ReadFrame()
}

// DecodeCapabilities converts the raw capability map reported by a track.
// Keys are decoded one at a time: a key with an unexpected shape is skipped
// and reported in the returned error, the others still apply.
// Unknown keys are ignored; a missing key leaves the control unavailable.
func DecodeCapabilities(raw map[string]any) (domain.CapabilitySet, error) {
	var caps domain.CapabilitySet
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		next := caps
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &next,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return caps, err
		}
		if err := decoder.Decode(map[string]any{key: raw[key]}); err != nil {
			errs = append(errs, fmt.Errorf("decode capability %q: %w", key, err))
			continue
		}
		caps = next
	}
	return caps, errors.Join(errs...)
}

func releaseTracks(tracks []ports.Track) error {
	var errs []error
	for _, t := range tracks {
		if err := t.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
