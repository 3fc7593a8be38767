package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/shelfscan"
	"github.com/aretw0/shelfscan/pkg/isbn"
)

// DecodeReport is the outcome of decoding one image file.
type DecodeReport struct {
	Path  string `json:"path"`
	ISBN  string `json:"isbn,omitempty"`
	Raw   string `json:"raw,omitempty"`
	Error string `json:"error,omitempty"`
}

// RunDecode reads an ISBN barcode from each image file. It reports how many
// files yielded an ISBN.
func RunDecode(paths []string, strict, jsonMode bool, out io.Writer) (int, error) {
	opts := []shelfscan.Option{shelfscan.WithTryHarder()}
	if strict {
		opts = append(opts, shelfscan.WithStrictChecksum())
	}

	reports := make([]DecodeReport, 0, len(paths))
	found := 0
	for _, p := range paths {
		report := DecodeReport{Path: p}
		res, err := shelfscan.DecodeFile(p, opts...)
		switch {
		case err != nil:
			report.Error = err.Error()
		case res.Found():
			report.ISBN = res.ISBN
			report.Raw = res.Raw
			found++
		default:
			report.Raw = res.Raw
		}
		reports = append(reports, report)
	}

	if jsonMode {
		enc := json.NewEncoder(out)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return found, err
			}
		}
		return found, nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%s\terror\t%s\n", r.Path, r.Error)
		case r.ISBN != "":
			fmt.Fprintf(tw, "%s\t%s\n", r.Path, r.ISBN)
		default:
			fmt.Fprintf(tw, "%s\t-\t%s\n", r.Path, noCodeReason(r.Raw))
		}
	}
	return found, tw.Flush()
}

func noCodeReason(raw string) string {
	if raw == "" {
		return "no barcode detected"
	}
	return fmt.Sprintf("%s is not an ISBN", raw)
}

// NormalizeReport is the validation of one candidate string.
type NormalizeReport struct {
	Input         string `json:"input"`
	Valid         bool   `json:"valid"`
	ISBN          string `json:"isbn,omitempty"`
	ISBN13        string `json:"isbn13,omitempty"`
	ChecksumValid bool   `json:"checksum_valid"`
}

// Normalize validates every input.
func Normalize(inputs []string) []NormalizeReport {
	reports := make([]NormalizeReport, 0, len(inputs))
	for _, in := range inputs {
		r := NormalizeReport{Input: in}
		if id, ok := isbn.Normalize(in); ok {
			r.Valid = true
			r.ISBN = id
			r.ISBN13, _ = isbn.ToISBN13(id)
			r.ChecksumValid = isbn.ValidChecksum(id)
		}
		reports = append(reports, r)
	}
	return reports
}
