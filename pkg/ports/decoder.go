package ports

import "github.com/aretw0/shelfscan/pkg/domain"

// Decoder attempts to read one barcode symbol from a region of a frame.
// Implementations must be bounded-time and must not return an error-level
// result for the common "no symbol" case.
type Decoder interface {
	Decode(frame *domain.Frame, region domain.ROI) domain.DecodeResult
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(frame *domain.Frame, region domain.ROI) domain.DecodeResult

// Decode calls f(frame, region).
func (f DecoderFunc) Decode(frame *domain.Frame, region domain.ROI) domain.DecodeResult {
	return f(frame, region)
}

// DecoderFactory builds a decoder restricted to the given symbologies.
type DecoderFactory func(formats []domain.Symbology) (Decoder, error)
