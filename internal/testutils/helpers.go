package testutils

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/require"
)

// RenderEAN13 encodes contents as an EAN-13 symbol of the given pixel size.
// It fails the test immediately on error.
func RenderEAN13(t *testing.T, contents string, width, height int) image.Image {
	t.Helper()

	matrix, err := oned.NewEAN13Writer().Encode(contents, gozxing.BarcodeFormat_EAN_13, width, height, nil)
	require.NoError(t, err, "Failed to encode EAN-13 %q", contents)
	return matrix
}

// Blank returns a white frame of the given size.
func Blank(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// Centered draws symbol in the middle of a white frame of the given size.
func Centered(symbol image.Image, width, height int) *image.Gray {
	frame := Blank(width, height)
	sb := symbol.Bounds()
	offset := image.Pt((width-sb.Dx())/2, (height-sb.Dy())/2)
	draw.Draw(frame, sb.Sub(sb.Min).Add(offset), symbol, sb.Min, draw.Src)
	return frame
}

// PlacedAt draws symbol with its top-left corner at pt on a white frame.
func PlacedAt(symbol image.Image, width, height int, pt image.Point) *image.Gray {
	frame := Blank(width, height)
	sb := symbol.Bounds()
	draw.Draw(frame, sb.Sub(sb.Min).Add(pt), symbol, sb.Min, draw.Src)
	return frame
}
