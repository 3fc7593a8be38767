package memory

import (
	"context"
	"image"
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
)

// Capture implements ports.MediaCapture with scripted frames.
// It records every request and every track it hands out, so tests can assert
// that the hardware handle was released.
type Capture struct {
	mu          sync.Mutex
	frames      []image.Image
	caps        map[string]any
	err         error
	applyErr    error
	warmup      int
	nilFrames   int
	gate        <-chan struct{}
	requests    int
	constraints []domain.Constraints
	tracks      []*Track
}

// CaptureOption configures the Capture.
type CaptureOption func(*Capture)

// WithFrames sets the frames returned by ReadFrame, cycled in order.
func WithFrames(frames ...image.Image) CaptureOption {
	return func(c *Capture) {
		c.frames = frames
	}
}

// WithCapabilities sets the raw capability map reported by each track.
func WithCapabilities(caps map[string]any) CaptureOption {
	return func(c *Capture) {
		c.caps = caps
	}
}

// WithTorch is shorthand for a capability map exposing torch control.
func WithTorch() CaptureOption {
	return WithCapabilities(map[string]any{"torch": true})
}

// WithRequestError makes every RequestStream call fail (e.g. permission denied).
func WithRequestError(err error) CaptureOption {
	return func(c *Capture) {
		c.err = err
	}
}

// WithApplyError makes every ApplyConstraints call fail.
func WithApplyError(err error) CaptureOption {
	return func(c *Capture) {
		c.applyErr = err
	}
}

// WithWarmup makes the first n reads of each track return frames of zero size.
func WithWarmup(n int) CaptureOption {
	return func(c *Capture) {
		c.warmup = n
	}
}

// WithNilFrames makes the first n reads of each track return no frame at all.
func WithNilFrames(n int) CaptureOption {
	return func(c *Capture) {
		c.nilFrames = n
	}
}

// WithRequestGate makes the first RequestStream call block until gate is
// closed, ignoring its context like a driver stuck opening the device.
func WithRequestGate(gate <-chan struct{}) CaptureOption {
	return func(c *Capture) {
		c.gate = gate
	}
}

// NewCapture creates a scripted media-capture collaborator.
func NewCapture(opts ...CaptureOption) *Capture {
	c := &Capture{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestStream returns a stream with a single video track.
func (c *Capture) RequestStream(ctx context.Context, constraints domain.Constraints) (ports.Stream, error) {
	c.mu.Lock()
	c.requests++
	c.constraints = append(c.constraints, constraints)
	gate := c.gate
	c.gate = nil
	c.mu.Unlock()

	if gate != nil {
		<-gate
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}

	t := &Track{
		frames:    c.frames,
		caps:      c.caps,
		applyErr:  c.applyErr,
		warmup:    c.warmup,
		nilFrames: c.nilFrames,
	}
	c.tracks = append(c.tracks, t)
	return &Stream{tracks: []ports.Track{t}}, nil
}

// Requests returns how many streams were requested.
func (c *Capture) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// LastConstraints returns the constraints of the most recent request.
func (c *Capture) LastConstraints() (domain.Constraints, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.constraints) == 0 {
		return domain.Constraints{}, false
	}
	return c.constraints[len(c.constraints)-1], true
}

// Tracks returns every track handed out so far.
func (c *Capture) Tracks() []*Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Track(nil), c.tracks...)
}

// Live returns how many handed-out tracks have not been stopped.
func (c *Capture) Live() int {
	n := 0
	for _, t := range c.Tracks() {
		if !t.Stopped() {
			n++
		}
	}
	return n
}

// Stream implements ports.Stream.
type Stream struct {
	tracks []ports.Track
}

// Tracks returns the stream tracks.
func (s *Stream) Tracks() []ports.Track {
	return s.tracks
}

// Track implements ports.Track over a fixed frame list.
type Track struct {
	mu        sync.Mutex
	frames    []image.Image
	caps      map[string]any
	applyErr  error
	warmup    int
	nilFrames int
	reads     int
	seq       uint64
	stops     int
	applied   []domain.TrackConstraints
}

// Stop marks the track released.
func (t *Track) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
	return nil
}

// Stopped reports whether Stop was called at least once.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops > 0
}

// Capabilities returns the scripted capability map.
func (t *Track) Capabilities() map[string]any {
	return t.caps
}

// ApplyConstraints records the constraints.
func (t *Track) ApplyConstraints(ctx context.Context, constraints domain.TrackConstraints) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.applyErr != nil {
		return t.applyErr
	}
	t.applied = append(t.applied, constraints)
	return nil
}

// Applied returns every constraint set applied so far.
func (t *Track) Applied() []domain.TrackConstraints {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.TrackConstraints(nil), t.applied...)
}

// ReadFrame returns the next scripted frame.
func (t *Track) ReadFrame() (*domain.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reads++
	t.seq++
	if t.stops > 0 {
		return nil, domain.ErrNoStream
	}
	if t.reads <= t.nilFrames {
		return nil, nil
	}
	if t.reads <= t.nilFrames+t.warmup || len(t.frames) == 0 {
		return &domain.Frame{Sequence: t.seq}, nil
	}
	img := t.frames[(t.reads-t.nilFrames-t.warmup-1)%len(t.frames)]
	return domain.NewFrame(img, t.seq), nil
}
