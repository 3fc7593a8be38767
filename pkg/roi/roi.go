// Package roi derives the central sampling rectangle of a video frame.
package roi

import (
	"math"
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// Compute returns the default centered ROI (60% x 40%) for the given frame size.
// It reports false until both dimensions are known and non-zero.
func Compute(frameWidth, frameHeight int) (domain.ROI, bool) {
	return ComputeFraction(frameWidth, frameHeight, domain.DefaultROIWidthFraction, domain.DefaultROIHeightFraction)
}

// ComputeFraction returns a centered ROI covering the given fractions of the frame.
// Sizes and offsets are floored to whole pixels.
func ComputeFraction(frameWidth, frameHeight int, widthFraction, heightFraction float64) (domain.ROI, bool) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return domain.ROI{}, false
	}
	w := int(math.Floor(float64(frameWidth) * widthFraction))
	h := int(math.Floor(float64(frameHeight) * heightFraction))
	if w <= 0 || h <= 0 {
		return domain.ROI{}, false
	}
	return domain.ROI{
		X:      (frameWidth - w) / 2,
		Y:      (frameHeight - h) / 2,
		Width:  w,
		Height: h,
	}, true
}

// Tracker caches the ROI of a scan run. The first successful computation wins;
// later calls return it unchanged even if the camera briefly reports another size.
type Tracker struct {
	mu             sync.Mutex
	widthFraction  float64
	heightFraction float64
	current        *domain.ROI
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithFractions overrides the default 0.6 x 0.4 coverage.
// Values outside (0, 1] are ignored.
func WithFractions(width, height float64) Option {
	return func(t *Tracker) {
		if width > 0 && width <= 1 {
			t.widthFraction = width
		}
		if height > 0 && height <= 1 {
			t.heightFraction = height
		}
	}
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		widthFraction:  domain.DefaultROIWidthFraction,
		heightFraction: domain.DefaultROIHeightFraction,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the cached ROI, computing it from the frame size on first use.
func (t *Tracker) Get(frameWidth, frameHeight int) (domain.ROI, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		return *t.current, true
	}
	r, ok := ComputeFraction(frameWidth, frameHeight, t.widthFraction, t.heightFraction)
	if !ok {
		return domain.ROI{}, false
	}
	t.current = &r
	return r, true
}

// Current returns the cached ROI, if any.
func (t *Tracker) Current() (domain.ROI, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return domain.ROI{}, false
	}
	return *t.current, true
}

// Reset discards the cached ROI.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
}
