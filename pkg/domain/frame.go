package domain

import (
	"image"
	"time"
)

// ROI is a rectangle in source-frame pixel coordinates.
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the ROI into an image.Rectangle relative to the frame origin.
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the ROI covers no pixels.
func (r ROI) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// FullFrame returns the ROI covering the entire frame.
func FullFrame(width, height int) ROI {
	return ROI{Width: width, Height: height}
}

// Frame is a single video frame read from a camera track.
// Width and Height are zero while the camera is still warming up.
type Frame struct {
	Image     image.Image
	Width     int
	Height    int
	Sequence  uint64
	Timestamp time.Time
}

// NewFrame wraps an image, taking dimensions from its bounds.
func NewFrame(img image.Image, seq uint64) *Frame {
	f := &Frame{Image: img, Sequence: seq, Timestamp: time.Now()}
	if img != nil {
		b := img.Bounds()
		f.Width = b.Dx()
		f.Height = b.Dy()
	}
	return f
}

// Ready reports whether the frame has known, non-zero dimensions and pixels.
func (f *Frame) Ready() bool {
	return f != nil && f.Image != nil && f.Width > 0 && f.Height > 0
}
