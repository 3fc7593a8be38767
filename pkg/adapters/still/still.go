// Package still implements ports.MediaCapture over image files, so the scan
// loop can run against photographs or recorded frames without a camera.
package still

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ErrNoImages is returned when a directory holds no decodable image.
var ErrNoImages = errors.New("no images found")

// extensions lists the file types picked up by Dir.
var extensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Load decodes an image file of any registered format.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode decodes image bytes of any registered format.
func Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty %s image", format)
	}
	return img, nil
}

// Dir returns the image files of a directory in lexical order.
func Dir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Capture serves a fixed list of images as a camera.
type Capture struct {
	images []image.Image
	native bool
}

// Option configures the Capture.
type Option func(*Capture)

// WithNativeSize disables downscaling to the requested constraints.
func WithNativeSize() Option {
	return func(c *Capture) {
		c.native = true
	}
}

// New creates a capture over already decoded images.
func New(images []image.Image, opts ...Option) (*Capture, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	c := &Capture{images: images}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open loads every path and creates a capture over them.
func Open(paths []string, opts ...Option) (*Capture, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := Load(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return New(images, opts...)
}

// RequestStream returns a single-track stream. Images larger than the
// requested size are scaled down preserving aspect ratio, the way a camera
// would deliver them.
func (c *Capture) RequestStream(ctx context.Context, constraints domain.Constraints) (ports.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames := make([]image.Image, len(c.images))
	for i, img := range c.images {
		if c.native {
			frames[i] = img
			continue
		}
		frames[i] = fit(img, constraints.Width, constraints.Height)
	}
	return &stream{track: &track{frames: frames}}, nil
}

// fit scales img down to fit within maxW x maxH. Zero bounds mean unbounded.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && float64(h)*scale > float64(maxH) {
		scale = float64(maxH) / float64(h)
	}
	if scale >= 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

type stream struct {
	track *track
}

func (s *stream) Tracks() []ports.Track {
	return []ports.Track{s.track}
}

type track struct {
	mu      sync.Mutex
	frames  []image.Image
	seq     uint64
	stopped bool
}

func (t *track) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return nil
}

// Capabilities reports no hardware controls.
func (t *track) Capabilities() map[string]any {
	return nil
}

func (t *track) ApplyConstraints(ctx context.Context, constraints domain.TrackConstraints) error {
	return domain.ErrTorchUnsupported
}

// ReadFrame returns the images in order, cycling.
func (t *track) ReadFrame() (*domain.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil, domain.ErrNoStream
	}
	img := t.frames[t.seq%uint64(len(t.frames))]
	t.seq++
	return domain.NewFrame(img, t.seq), nil
}
