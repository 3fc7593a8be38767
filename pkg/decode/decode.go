// Package decode adapts the gozxing 1D readers to the ports.Decoder contract.
//
// The adapter crops a frame to the requested region, converts it to a
// luminance source, binarizes it with a hybrid binarizer and runs a UPC/EAN
// reader restricted to the configured symbologies.
package decode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

var (
	// ErrMalformedFrame is reported when the frame has no pixels or unknown dimensions.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrRegionOutOfBounds is reported when the region does not fit inside the frame.
	ErrRegionOutOfBounds = errors.New("region outside frame")

	// ErrUnsupportedSymbology is returned by New for formats the adapter cannot read.
	ErrUnsupportedSymbology = errors.New("unsupported symbology")
)

var formats = map[domain.Symbology]gozxing.BarcodeFormat{
	domain.SymbologyEAN13: gozxing.BarcodeFormat_EAN_13,
	domain.SymbologyEAN8:  gozxing.BarcodeFormat_EAN_8,
	domain.SymbologyUPCA:  gozxing.BarcodeFormat_UPC_A,
	domain.SymbologyUPCE:  gozxing.BarcodeFormat_UPC_E,
}

// Reader is a bounded-time retail barcode decoder.
// Safe for concurrent use; calls are serialized.
type Reader struct {
	mu      sync.Mutex
	reader  gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
	allowed []domain.Symbology
}

// Option configures the Reader.
type Option func(*Reader)

// WithTryHarder spends more time per frame looking for a symbol.
// Intended for one-shot still decoding, not for the live loop.
func WithTryHarder() Option {
	return func(r *Reader) {
		r.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
}

// New builds a Reader for the given symbologies. An empty list selects the retail set.
func New(symbologies []domain.Symbology, opts ...Option) (*Reader, error) {
	if len(symbologies) == 0 {
		symbologies = domain.RetailSymbologies()
	}

	possible := make([]gozxing.BarcodeFormat, 0, len(symbologies))
	for _, s := range symbologies {
		f, ok := formats[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbology, s)
		}
		possible = append(possible, f)
	}

	r := &Reader{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: possible,
		},
		allowed: append([]domain.Symbology(nil), symbologies...),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reader = oned.NewMultiFormatUPCEANReader(r.hints)
	return r, nil
}

// Factory returns a ports.DecoderFactory building Readers with the given options.
func Factory(opts ...Option) ports.DecoderFactory {
	return func(symbologies []domain.Symbology) (ports.Decoder, error) {
		return New(symbologies, opts...)
	}
}

// Symbologies returns the formats this reader is restricted to.
func (r *Reader) Symbologies() []domain.Symbology {
	return append([]domain.Symbology(nil), r.allowed...)
}

// Decode attempts to read one symbol inside region. An empty region means the whole frame.
func (r *Reader) Decode(frame *domain.Frame, region domain.ROI) (res domain.DecodeResult) {
	defer func() {
		if p := recover(); p != nil {
			res = domain.DecodeFailed(fmt.Errorf("decoder panic: %v", p))
		}
	}()

	if !frame.Ready() {
		return domain.DecodeFailed(ErrMalformedFrame)
	}
	if region.Empty() {
		region = domain.FullFrame(frame.Width, frame.Height)
	}
	if region.X < 0 || region.Y < 0 || region.X+region.Width > frame.Width || region.Y+region.Height > frame.Height {
		return domain.DecodeFailed(fmt.Errorf("%w: %+v in %dx%d", ErrRegionOutOfBounds, region, frame.Width, frame.Height))
	}

	source := gozxing.NewLuminanceSourceFromImage(frame.Image)
	if region != domain.FullFrame(frame.Width, frame.Height) {
		cropped, err := source.Crop(region.X, region.Y, region.Width, region.Height)
		if err != nil {
			return domain.DecodeFailed(fmt.Errorf("crop: %w", err))
		}
		source = cropped
	}

	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return domain.DecodeFailed(fmt.Errorf("binarize: %w", err))
	}

	r.mu.Lock()
	result, err := r.reader.Decode(bitmap, r.hints)
	r.mu.Unlock()

	if err != nil {
		if isMiss(err) {
			return domain.NotFound()
		}
		return domain.DecodeFailed(err)
	}
	return domain.Found(result.GetText(), symbologyOf(result.GetBarcodeFormat()))
}

// isMiss reports errors that only mean "no valid symbol in this frame".
// Checksum and format failures are partial reads of a moving barcode.
func isMiss(err error) bool {
	switch err.(type) {
	case gozxing.NotFoundException, gozxing.ChecksumException, gozxing.FormatException:
		return true
	}
	return false
}

func symbologyOf(f gozxing.BarcodeFormat) domain.Symbology {
	for s, candidate := range formats {
		if candidate == f {
			return s
		}
	}
	return domain.Symbology(f.String())
}
