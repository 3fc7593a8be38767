package scanner_test

import (
	"context"
	"image"
	"testing"

	"github.com/aretw0/shelfscan/internal/testutils"
	"github.com/aretw0/shelfscan/pkg/adapters/memory"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/scanner"
	"github.com/aretw0/shelfscan/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestController_RealDecoder runs the loop against rendered EAN-13 frames
// through the default gozxing-backed decoder.
func TestController_RealDecoder(t *testing.T) {
	book := testutils.Centered(testutils.RenderEAN13(t, sampleISBN, 600, 200), 1280, 720)
	product := testutils.Centered(testutils.RenderEAN13(t, "4006381333931", 600, 200), 1280, 720)

	capture := memory.NewCapture(memory.WithFrames(
		testutils.Blank(1280, 720), // consumed by StartCamera
		testutils.Blank(1280, 720),
		product,
		book,
	))
	sched := scheduler.NewManual()
	sink := memory.NewSink()
	ctrl := scanner.New(capture, sink, scanner.WithScheduler(sched))
	defer ctrl.Close()
	ctx := context.Background()

	require.NoError(t, ctrl.StartCamera(ctx))
	require.NoError(t, ctrl.StartScan(ctx))

	sched.Tick() // blank
	sched.Tick() // non-book EAN-13
	assert.Empty(t, sink.Accepted())
	assert.Equal(t, domain.StatusScanning, ctrl.Status())

	sched.Tick() // book
	assert.Equal(t, []string{sampleISBN}, sink.Accepted())
	assert.Equal(t, domain.StatusReady, ctrl.Status())
	assert.Equal(t, 0, sched.Pending())
}

func TestController_RealDecoderStill(t *testing.T) {
	// Symbol left of the central ROI: only the whole-frame still decode can see it.
	img := testutils.PlacedAt(testutils.RenderEAN13(t, sampleISBN, 240, 100), 1280, 720, image.Pt(8, 310))
	capture := memory.NewCapture(memory.WithFrames(img))
	sink := memory.NewSink()
	ctrl := scanner.New(capture, sink, scanner.WithScheduler(scheduler.NewManual()))
	defer ctrl.Close()
	ctx := context.Background()

	require.NoError(t, ctrl.StartCamera(ctx))
	id, err := ctrl.DecodeStill(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleISBN, id)
	assert.Equal(t, []string{sampleISBN}, sink.Accepted())
}
