package memory

import (
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
)

// Decoder implements ports.Decoder by replaying scripted results.
// Once the script is exhausted it keeps returning the last result
// (or NotFound for an empty script).
type Decoder struct {
	mu      sync.Mutex
	script  []domain.DecodeResult
	calls   int
	regions []domain.ROI
	builds  int
	formats []domain.Symbology

	// Before, if set, runs inside Decode (outside the lock) with the 1-based call number.
	Before func(call int)
}

// NewDecoder creates a scripted decoder.
func NewDecoder(results ...domain.DecodeResult) *Decoder {
	return &Decoder{script: results}
}

// Decode returns the next scripted result.
func (d *Decoder) Decode(frame *domain.Frame, region domain.ROI) domain.DecodeResult {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.regions = append(d.regions, region)
	var res domain.DecodeResult
	switch {
	case len(d.script) == 0:
		res = domain.NotFound()
	case call <= len(d.script):
		res = d.script[call-1]
	default:
		res = d.script[len(d.script)-1]
	}
	before := d.Before
	d.mu.Unlock()

	if before != nil {
		before(call)
	}
	return res
}

// Calls returns how many times Decode ran.
func (d *Decoder) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Regions returns the region passed to each Decode call.
func (d *Decoder) Regions() []domain.ROI {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.ROI(nil), d.regions...)
}

// Factory returns a ports.DecoderFactory that always hands out this decoder
// and records how often it was built.
func (d *Decoder) Factory() ports.DecoderFactory {
	return func(formats []domain.Symbology) (ports.Decoder, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.builds++
		d.formats = formats
		return d, nil
	}
}

// Builds returns how many times the factory was invoked.
func (d *Decoder) Builds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builds
}

// Formats returns the symbologies of the latest build.
func (d *Decoder) Formats() []domain.Symbology {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.formats
}
