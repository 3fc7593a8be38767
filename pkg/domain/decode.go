package domain

import "fmt"

// Symbology is a barcode encoding standard.
type Symbology string

const (
	SymbologyEAN13 Symbology = "EAN_13"
	SymbologyEAN8  Symbology = "EAN_8"
	SymbologyUPCA  Symbology = "UPC_A"
	SymbologyUPCE  Symbology = "UPC_E"
)

// RetailSymbologies is the fixed hint set used by the scan loop.
// Arbitrary symbologies are excluded to bound false positives and latency.
func RetailSymbologies() []Symbology {
	return []Symbology{SymbologyEAN13, SymbologyEAN8, SymbologyUPCA, SymbologyUPCE}
}

// DecodeOutcome tags a DecodeResult.
type DecodeOutcome int

const (
	DecodeNotFound DecodeOutcome = iota
	DecodeFound
	DecodeError
)

func (o DecodeOutcome) String() string {
	switch o {
	case DecodeFound:
		return "found"
	case DecodeError:
		return "error"
	default:
		return "not_found"
	}
}

// DecodeResult is produced once per sampled frame.
// Text is only set for DecodeFound, Err only for DecodeError.
type DecodeResult struct {
	Outcome DecodeOutcome
	Text    string
	Format  Symbology
	Err     error
}

// Found builds a successful result.
func Found(text string, format Symbology) DecodeResult {
	return DecodeResult{Outcome: DecodeFound, Text: text, Format: format}
}

// NotFound builds the "no symbol in this frame" result.
func NotFound() DecodeResult {
	return DecodeResult{Outcome: DecodeNotFound}
}

// DecodeFailed builds an error result. The error always matches ErrDecodeTransient.
func DecodeFailed(reason error) DecodeResult {
	return DecodeResult{Outcome: DecodeError, Err: fmt.Errorf("%w: %w", ErrDecodeTransient, reason)}
}
