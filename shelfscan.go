package shelfscan

import (
	_ "embed"
	"fmt"
	"image"

	"github.com/aretw0/shelfscan/pkg/adapters/still"
	"github.com/aretw0/shelfscan/pkg/decode"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/isbn"
)

// Version is the release of the library and its binaries.
//
//go:embed VERSION
var Version string

// Result is the outcome of a one-shot decode.
type Result struct {
	// ISBN is the normalised identifier, empty when no valid ISBN was found.
	ISBN string `json:"isbn,omitempty"`
	// Raw is the decoded text, set even when it is not an ISBN.
	Raw    string           `json:"raw,omitempty"`
	Format domain.Symbology `json:"format,omitempty"`
}

// Found reports whether a valid ISBN was decoded.
func (r Result) Found() bool {
	return r.ISBN != ""
}

type options struct {
	strict      bool
	tryHarder   bool
	symbologies []domain.Symbology
}

// Option configures a one-shot decode.
type Option func(*options)

// WithStrictChecksum rejects ISBNs whose check digit is wrong.
func WithStrictChecksum() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithTryHarder spends more time per image, useful for photographs.
func WithTryHarder() Option {
	return func(o *options) {
		o.tryHarder = true
	}
}

// WithSymbologies restricts the formats considered. Defaults to the retail set.
func WithSymbologies(formats ...domain.Symbology) Option {
	return func(o *options) {
		o.symbologies = formats
	}
}

// DecodeImage decodes the whole image once. Finding nothing is not an error:
// the returned Result is simply empty.
func DecodeImage(img image.Image, opts ...Option) (Result, error) {
	o := options{symbologies: domain.RetailSymbologies()}
	for _, opt := range opts {
		opt(&o)
	}

	var readerOpts []decode.Option
	if o.tryHarder {
		readerOpts = append(readerOpts, decode.WithTryHarder())
	}
	reader, err := decode.New(o.symbologies, readerOpts...)
	if err != nil {
		return Result{}, err
	}

	res := reader.Decode(domain.NewFrame(img, 1), domain.ROI{})
	switch res.Outcome {
	case domain.DecodeNotFound:
		return Result{}, nil
	case domain.DecodeError:
		return Result{}, res.Err
	}

	normalize := isbn.Normalize
	if o.strict {
		normalize = isbn.NormalizeStrict
	}
	out := Result{Raw: res.Text, Format: res.Format}
	if id, ok := normalize(res.Text); ok {
		out.ISBN = id
	}
	return out, nil
}

// DecodeFile loads an image file (png, jpeg, gif, bmp, tiff, webp) and decodes it once.
func DecodeFile(path string, opts ...Option) (Result, error) {
	img, err := still.Load(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return DecodeImage(img, opts...)
}
