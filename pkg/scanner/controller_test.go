package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/shelfscan/internal/testutils"
	"github.com/aretw0/shelfscan/pkg/adapters/memory"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/scanner"
	"github.com/aretw0/shelfscan/pkg/scheduler"
	"github.com/aretw0/shelfscan/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleISBN = "9780142437230"

// rig bundles a controller with observable collaborators.
type rig struct {
	ctrl      *scanner.Controller
	capture   *memory.Capture
	decoder   *memory.Decoder
	sched     *scheduler.Manual
	sink      *memory.Sink
	presenter *memory.Presenter
}

func newRig(t *testing.T, captureOpts []memory.CaptureOption, results []domain.DecodeResult, opts ...scanner.Option) *rig {
	t.Helper()
	if captureOpts == nil {
		captureOpts = []memory.CaptureOption{memory.WithFrames(testutils.Blank(1280, 720))}
	}
	r := &rig{
		capture:   memory.NewCapture(captureOpts...),
		decoder:   memory.NewDecoder(results...),
		sched:     scheduler.NewManual(),
		sink:      memory.NewSink(),
		presenter: memory.NewPresenter(),
	}
	base := []scanner.Option{
		scanner.WithScheduler(r.sched),
		scanner.WithDecoderFactory(r.decoder.Factory()),
		scanner.WithPresenter(r.presenter),
	}
	r.ctrl = scanner.New(r.capture, r.sink, append(base, opts...)...)
	t.Cleanup(func() { _ = r.ctrl.Close() })
	return r
}

func (r *rig) scanning(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))
	require.NoError(t, r.ctrl.StartScan(ctx))
	require.Equal(t, domain.StatusScanning, r.ctrl.Status())
}

func TestController_DetectOnThirdTick(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{
		domain.NotFound(),
		domain.NotFound(),
		domain.Found(sampleISBN, domain.SymbologyEAN13),
	})
	r.scanning(t)

	assert.Equal(t, 1, r.sched.Tick())
	assert.Equal(t, 1, r.sched.Tick())
	assert.Empty(t, r.sink.Accepted())
	assert.Equal(t, 1, r.sched.Tick())

	assert.Equal(t, []string{sampleISBN}, r.sink.Accepted())
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 0, r.sched.Pending(), "detection stops the loop")

	// Further ticks never reach the decoder.
	assert.Equal(t, 0, r.sched.Advance(5))
	assert.Equal(t, 3, r.decoder.Calls())

	// Every attempt used the same centered ROI.
	want := domain.ROI{X: 256, Y: 216, Width: 768, Height: 288}
	for _, region := range r.decoder.Regions() {
		assert.Equal(t, want, region)
	}
	assert.Equal(t, domain.RetailSymbologies(), r.decoder.Formats())

	assert.Equal(t, []string{
		domain.LabelStarting,
		domain.LabelReady,
		domain.LabelScanning,
		domain.LabelDetected,
		domain.LabelReady,
	}, r.presenter.Labels())

	snap := r.ctrl.Snapshot()
	assert.Equal(t, sampleISBN, snap.LastDetected)
	assert.NotEmpty(t, snap.SessionID)

	notices := r.presenter.Notices()
	require.NotEmpty(t, notices)
	assert.Equal(t, domain.Notice{Level: domain.NoticeSuccess, Title: "ISBN Captured", Description: sampleISBN}, notices[len(notices)-1])

	// Camera stays live after a detection, so scanning can resume.
	assert.Equal(t, 1, r.capture.Live())
	require.NoError(t, r.ctrl.StartScan(context.Background()))
	assert.Equal(t, domain.StatusScanning, r.ctrl.Status())
}

func TestController_NonISBNKeepsScanning(t *testing.T) {
	// A valid EAN-13 that is not a book, then a UPC-A.
	r := newRig(t, nil, []domain.DecodeResult{
		domain.Found("4006381333931", domain.SymbologyEAN13),
		domain.Found("012345678905", domain.SymbologyUPCA),
	})
	r.scanning(t)

	r.sched.Advance(5)

	assert.Empty(t, r.sink.Accepted())
	assert.Equal(t, domain.StatusScanning, r.ctrl.Status())
	assert.Equal(t, 5, r.decoder.Calls())
	assert.Equal(t, 1, r.sched.Pending(), "exactly one frame request outstanding")
}

func TestController_DecodeErrorKeepsScanning(t *testing.T) {
	var errs int
	r := newRig(t, nil,
		[]domain.DecodeResult{domain.DecodeFailed(errors.New("boom"))},
		scanner.WithLifecycleHooks(domain.LifecycleHooks{
			OnDecodeError: func(ctx context.Context, ev *domain.DecodeEvent) {
				errs++
				assert.ErrorIs(t, ev.Err, domain.ErrDecodeTransient)
			},
		}),
	)
	r.scanning(t)

	r.sched.Advance(3)

	assert.Equal(t, 3, errs)
	assert.Equal(t, domain.StatusScanning, r.ctrl.Status())
	assert.Empty(t, r.sink.Accepted())
}

func TestController_StrictChecksum(t *testing.T) {
	r := newRig(t, nil,
		[]domain.DecodeResult{domain.Found("9780142437231", domain.SymbologyEAN13)},
		scanner.WithStrictChecksum(true),
	)
	r.scanning(t)

	r.sched.Advance(2)
	assert.Empty(t, r.sink.Accepted())
	assert.Equal(t, domain.StatusScanning, r.ctrl.Status())
}

func TestController_WarmupFramesAreSkipped(t *testing.T) {
	r := newRig(t,
		[]memory.CaptureOption{memory.WithFrames(testutils.Blank(1280, 720)), memory.WithWarmup(3)},
		[]domain.DecodeResult{domain.NotFound()},
	)
	r.scanning(t) // StartCamera consumed the first warm-up frame

	r.sched.Advance(2)
	assert.Equal(t, 0, r.decoder.Calls(), "zero-sized frames are not decoded")
	assert.Equal(t, 1, r.sched.Pending())

	r.sched.Tick()
	assert.Equal(t, 1, r.decoder.Calls())
}

func TestController_StopScan(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.NotFound()})
	r.scanning(t)
	ctx := context.Background()

	r.sched.Tick()
	require.Equal(t, 1, r.decoder.Calls())

	require.NoError(t, r.ctrl.StopScan(ctx))
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 0, r.sched.Pending())

	r.sched.Advance(5)
	assert.Equal(t, 1, r.decoder.Calls(), "no decode after stop")

	// Idempotent.
	require.NoError(t, r.ctrl.StopScan(ctx))
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
}

func TestController_StopDuringDecodeDiscardsResult(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)})
	r.decoder.Before = func(call int) {
		if call == 1 {
			require.NoError(t, r.ctrl.StopScan(context.Background()))
		}
	}
	r.scanning(t)

	r.sched.Tick()

	assert.Empty(t, r.sink.Accepted(), "a stale run must not emit")
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 0, r.sched.Pending())
	assert.Empty(t, r.ctrl.Snapshot().LastDetected)
}

func TestController_RacingDetectionsEmitOnce(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)})
	var still string
	r.decoder.Before = func(call int) {
		if call == 1 {
			// A still decode lands while the loop tick is still decoding.
			var err error
			still, err = r.ctrl.DecodeStill(context.Background())
			require.NoError(t, err)
		}
	}
	r.scanning(t)

	r.sched.Tick()

	assert.Equal(t, sampleISBN, still)
	assert.Equal(t, []string{sampleISBN}, r.sink.Accepted(), "exactly one detection")
	assert.Equal(t, 2, r.decoder.Calls())
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 0, r.sched.Pending())

	detected := 0
	for _, label := range r.presenter.Labels() {
		if label == domain.LabelDetected {
			detected++
		}
	}
	assert.Equal(t, 1, detected)
}

func TestController_TeardownWhileScanning(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.NotFound()})
	r.scanning(t)
	ctx := context.Background()

	r.sched.Tick()
	require.NoError(t, r.ctrl.StopCamera(ctx))

	assert.Equal(t, domain.StatusIdle, r.ctrl.Status())
	assert.Equal(t, 0, r.capture.Live(), "every track released")
	for _, track := range r.capture.Tracks() {
		assert.True(t, track.Stopped())
	}
	assert.Equal(t, 0, r.sched.Pending(), "no frame request left behind")

	r.sched.Advance(3)
	assert.Equal(t, 1, r.decoder.Calls())

	// Idempotent, and the camera can be reopened.
	require.NoError(t, r.ctrl.StopCamera(ctx))
	require.NoError(t, r.ctrl.StartCamera(ctx))
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 2, r.capture.Requests())
}

func TestController_CameraRejected(t *testing.T) {
	denied := errors.New("NotAllowedError")
	r := newRig(t, []memory.CaptureOption{memory.WithRequestError(denied)}, nil)
	ctx := context.Background()

	err := r.ctrl.StartCamera(ctx)
	assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
	assert.ErrorIs(t, err, denied)

	assert.Equal(t, domain.StatusIdle, r.ctrl.Status())
	assert.Equal(t, 0, r.decoder.Builds(), "no decoder is built for a failed session")
	assert.Nil(t, r.ctrl.Snapshot().ROI)
	assert.Equal(t, []string{domain.LabelStarting, domain.LabelError, domain.LabelIdle}, r.presenter.Labels())

	notices := r.presenter.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NoticeDestructive, notices[0].Level)

	assert.ErrorIs(t, r.ctrl.StartScan(ctx), domain.ErrInvalidTransition)
	_, err = r.ctrl.DecodeStill(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestController_DecoderInitFailure(t *testing.T) {
	broken := ports.DecoderFactory(func([]domain.Symbology) (ports.Decoder, error) {
		return nil, errors.New("no codec")
	})
	capture := memory.NewCapture(memory.WithFrames(testutils.Blank(640, 480)))
	presenter := memory.NewPresenter()
	ctrl := scanner.New(capture, memory.NewSink(),
		scanner.WithScheduler(scheduler.NewManual()),
		scanner.WithDecoderFactory(broken),
		scanner.WithPresenter(presenter),
	)
	defer ctrl.Close()
	ctx := context.Background()

	require.NoError(t, ctrl.StartCamera(ctx))
	assert.Error(t, ctrl.StartScan(ctx))
	assert.Equal(t, domain.StatusReady, ctrl.Status(), "camera stays usable")
	assert.Contains(t, presenter.Labels(), domain.LabelError)
}

func TestController_StartCameraIsIdempotent(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.ctrl.StartCamera(ctx))
	require.NoError(t, r.ctrl.StartCamera(ctx))
	assert.Equal(t, 1, r.capture.Requests())

	require.NoError(t, r.ctrl.StartScan(ctx))
	require.NoError(t, r.ctrl.StartScan(ctx))
	assert.Equal(t, 1, r.decoder.Builds())
	assert.Equal(t, 1, r.sched.Pending())
}

func TestController_DecodeStillNoCode(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.NotFound()})
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))

	id, err := r.ctrl.DecodeStill(ctx)
	assert.ErrorIs(t, err, scanner.ErrNoCodeFound)
	assert.Empty(t, id)
	assert.Equal(t, domain.StatusReady, r.ctrl.Status(), "state unchanged")

	labels := r.presenter.Labels()
	assert.Equal(t, []string{domain.LabelDecodingStill, domain.LabelNoCodeInStill}, labels[len(labels)-2:])
	notices := r.presenter.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "No barcode detected", notices[0].Title)

	// The still path decodes the whole frame with its own retail decoder.
	assert.Equal(t, []domain.ROI{{Width: 1280, Height: 720}}, r.decoder.Regions())
	assert.Equal(t, domain.RetailSymbologies(), r.decoder.Formats())
}

func TestController_DecodeStillDetects(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found("978-0-14-243723-0", domain.SymbologyEAN13)})
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))

	id, err := r.ctrl.DecodeStill(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleISBN, id)
	assert.Equal(t, []string{sampleISBN}, r.sink.Accepted())
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
}

func TestController_SinkFailureIsNotRetried(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)})
	r.sink.FailWith(errors.New("downstream offline"))
	r.scanning(t)

	r.sched.Advance(3)
	assert.Equal(t, []string{sampleISBN}, r.sink.Accepted())
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
}

func TestController_Torch(t *testing.T) {
	r := newRig(t, []memory.CaptureOption{memory.WithFrames(testutils.Blank(640, 480)), memory.WithTorch()}, nil)
	ctx := context.Background()

	_, err := r.ctrl.ToggleTorch(ctx)
	assert.ErrorIs(t, err, domain.ErrNoStream)

	require.NoError(t, r.ctrl.StartCamera(ctx))
	on, err := r.ctrl.ToggleTorch(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, r.ctrl.Snapshot().Torch)

	on, err = r.ctrl.ToggleTorch(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestController_TorchUnsupported(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))

	_, err := r.ctrl.ToggleTorch(ctx)
	assert.ErrorIs(t, err, domain.ErrTorchUnsupported)
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())

	notices := r.presenter.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.Notice{
		Level:       domain.NoticeInfo,
		Title:       "Torch not supported",
		Description: "Your device camera doesn't expose torch control",
	}, notices[0])
}

func TestController_TorchApplyFailure(t *testing.T) {
	r := newRig(t, []memory.CaptureOption{
		memory.WithFrames(testutils.Blank(640, 480)),
		memory.WithTorch(),
		memory.WithApplyError(errors.New("OverconstrainedError")),
	}, nil)
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))

	_, err := r.ctrl.ToggleTorch(ctx)
	assert.Error(t, err)
	assert.False(t, r.ctrl.Snapshot().Torch)

	notices := r.presenter.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NoticeDestructive, notices[0].Level)
	assert.Equal(t, "Torch toggle failed", notices[0].Title)
}

func TestController_DeviceRegistry(t *testing.T) {
	registry := session.NewManager()
	ctx := context.Background()

	first := scanner.New(memory.NewCapture(memory.WithFrames(testutils.Blank(640, 480))), memory.NewSink(),
		scanner.WithScheduler(scheduler.NewManual()),
		scanner.WithDeviceRegistry(registry, "rear"),
	)
	second := scanner.New(memory.NewCapture(memory.WithFrames(testutils.Blank(640, 480))), memory.NewSink(),
		scanner.WithScheduler(scheduler.NewManual()),
		scanner.WithDeviceRegistry(registry, "rear"),
	)

	require.NoError(t, first.StartCamera(ctx))
	err := second.StartCamera(ctx)
	assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
	assert.ErrorIs(t, err, domain.ErrDeviceBusy)
	assert.Equal(t, domain.StatusIdle, second.Status())

	require.NoError(t, first.StopCamera(ctx))
	assert.Empty(t, registry.Held())

	require.NoError(t, second.StartCamera(ctx))
	assert.Equal(t, []string{"rear"}, registry.Held())
	require.NoError(t, second.Close())
}

func TestController_StatusHooks(t *testing.T) {
	var transitions []string
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)},
		scanner.WithLifecycleHooks(domain.LifecycleHooks{
			OnStatusChange: func(ctx context.Context, ev *domain.StatusEvent) {
				transitions = append(transitions, string(ev.From)+">"+string(ev.To))
			},
		}),
	)
	r.scanning(t)
	r.sched.Tick()
	require.NoError(t, r.ctrl.StopCamera(context.Background()))

	assert.Equal(t, []string{
		"idle>starting",
		"starting>ready",
		"ready>scanning",
		"scanning>detected",
		"detected>ready",
		"ready>idle",
	}, transitions)
}

func TestController_RestartWhileStartIsStuck(t *testing.T) {
	gate := make(chan struct{})
	r := newRig(t, []memory.CaptureOption{
		memory.WithFrames(testutils.Blank(1280, 720)),
		memory.WithRequestGate(gate),
	}, []domain.DecodeResult{domain.NotFound()})
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() { stale <- r.ctrl.StartCamera(ctx) }()
	require.Eventually(t, func() bool { return r.capture.Requests() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.ctrl.StopCamera(ctx))
	assert.Equal(t, domain.StatusIdle, r.ctrl.Status())

	require.NoError(t, r.ctrl.StartCamera(ctx), "a start after stop must not wait on the stuck request")
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())

	close(gate)
	assert.ErrorIs(t, <-stale, domain.ErrCameraUnavailable)

	// The stale start released only its own stream.
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
	assert.Equal(t, 1, r.capture.Live())
	require.NoError(t, r.ctrl.StartScan(ctx))
	r.sched.Tick()
	assert.Equal(t, 1, r.decoder.Calls())
}

func TestController_DecodeStillLosesToLoop(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)})
	r.decoder.Before = func(call int) {
		if call == 1 {
			// The loop claims a detection while the still is decoding.
			r.sched.Tick()
		}
	}
	r.scanning(t)

	id, err := r.ctrl.DecodeStill(context.Background())
	assert.ErrorIs(t, err, scanner.ErrStillSuperseded)
	assert.Empty(t, id)
	assert.Equal(t, []string{sampleISBN}, r.sink.Accepted(), "only the loop detection is emitted")
	assert.Equal(t, domain.StatusReady, r.ctrl.Status())
}

func TestController_DecodeStillAfterCameraStopped(t *testing.T) {
	r := newRig(t, nil, []domain.DecodeResult{domain.Found(sampleISBN, domain.SymbologyEAN13)})
	r.decoder.Before = func(call int) {
		if call == 1 {
			require.NoError(t, r.ctrl.StopCamera(context.Background()))
		}
	}
	ctx := context.Background()
	require.NoError(t, r.ctrl.StartCamera(ctx))

	_, err := r.ctrl.DecodeStill(ctx)
	assert.ErrorIs(t, err, scanner.ErrStillSuperseded)
	assert.Empty(t, r.sink.Accepted())
	assert.Equal(t, domain.StatusIdle, r.ctrl.Status())
}

func TestController_NilFramesAreWarmup(t *testing.T) {
	r := newRig(t,
		[]memory.CaptureOption{memory.WithFrames(testutils.Blank(1280, 720)), memory.WithNilFrames(4)},
		[]domain.DecodeResult{domain.NotFound()},
	)
	r.scanning(t) // StartCamera consumed the first read
	ctx := context.Background()

	r.sched.Advance(2)
	assert.Equal(t, 0, r.decoder.Calls())
	assert.Equal(t, 1, r.sched.Pending(), "loop keeps sampling")

	_, err := r.ctrl.DecodeStill(ctx)
	assert.ErrorIs(t, err, scanner.ErrNoCodeFound)
	assert.Equal(t, 0, r.decoder.Calls())
	assert.Equal(t, domain.StatusScanning, r.ctrl.Status())

	r.sched.Tick()
	assert.Equal(t, 1, r.decoder.Calls())
}
