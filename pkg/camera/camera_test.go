package camera_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/shelfscan/internal/testutils"
	"github.com/aretw0/shelfscan/pkg/adapters/memory"
	"github.com/aretw0/shelfscan/pkg/camera"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StartStop(t *testing.T) {
	capture := memory.NewCapture(memory.WithFrames(testutils.Blank(1280, 720)))
	s := camera.NewSession(capture)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Active())

	// Default request: rear-facing, 1280x720, no audio.
	c, ok := capture.LastConstraints()
	require.True(t, ok)
	assert.Equal(t, "environment", c.FacingMode)
	assert.Equal(t, 1280, c.Width)
	assert.Equal(t, 720, c.Height)
	assert.False(t, c.Audio)

	// Start while active does not open a second stream.
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 1, capture.Requests())

	frame, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, frame.Ready())

	require.NoError(t, s.Stop())
	assert.False(t, s.Active())
	assert.Equal(t, 0, capture.Live())

	// Idempotent.
	require.NoError(t, s.Stop())

	_, err = s.Frame()
	assert.ErrorIs(t, err, domain.ErrNoStream)
}

func TestSession_StartFailure(t *testing.T) {
	denied := errors.New("NotAllowedError")
	s := camera.NewSession(memory.NewCapture(memory.WithRequestError(denied)))

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
	assert.ErrorIs(t, err, denied)
	assert.False(t, s.Active())
}

func TestSession_Capabilities(t *testing.T) {
	s := camera.NewSession(memory.NewCapture(memory.WithCapabilities(map[string]any{
		"torch":     true,
		"focusMode": []any{"continuous", "manual"},
		"zoom":      map[string]any{"min": 1, "max": 4, "step": 0.1},
		"deviceId":  "rear-0",
	})))

	assert.Equal(t, domain.CapabilitySet{}, s.Capabilities(), "inactive stream exposes nothing")

	require.NoError(t, s.Start(context.Background()))
	caps := s.Capabilities()
	assert.True(t, caps.SupportsTorch())
	assert.Equal(t, []string{"continuous", "manual"}, caps.FocusModes)
	require.NotNil(t, caps.Zoom)
	assert.Equal(t, 4.0, caps.Zoom.Max)
}

func TestSession_SetTorch(t *testing.T) {
	capture := memory.NewCapture(memory.WithTorch())
	s := camera.NewSession(capture)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetTorch(ctx, true), domain.ErrNoStream)

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.SetTorch(ctx, true))
	assert.True(t, s.Torch())

	applied := capture.Tracks()[0].Applied()
	require.Len(t, applied, 1)
	require.NotNil(t, applied[0].Torch)
	assert.True(t, *applied[0].Torch)

	require.NoError(t, s.Stop())
	assert.False(t, s.Torch(), "torch state does not survive the stream")
}

func TestSession_SetTorchUnsupported(t *testing.T) {
	// A device reporting torch: false is treated as unsupported.
	capture := memory.NewCapture(memory.WithCapabilities(map[string]any{"torch": false}))
	s := camera.NewSession(capture)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	err := s.SetTorch(ctx, true)
	assert.ErrorIs(t, err, domain.ErrTorchUnsupported)
	assert.Empty(t, capture.Tracks()[0].Applied())
	assert.True(t, s.Active(), "unsupported torch must not end the session")
}

func TestSession_StartAfterStopWhileRequestStuck(t *testing.T) {
	gate := make(chan struct{})
	capture := memory.NewCapture(
		memory.WithFrames(testutils.Blank(640, 480)),
		memory.WithRequestGate(gate),
	)
	s := camera.NewSession(capture)
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() { stale <- s.Start(ctx) }()
	require.Eventually(t, func() bool { return capture.Requests() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())

	// The stuck request is doomed; a new Start issues its own.
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 2, capture.Requests())
	frame, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, frame.Ready())

	close(gate)
	err = <-stale
	assert.ErrorIs(t, err, domain.ErrCameraUnavailable)

	assert.True(t, s.Active(), "late stream must not replace the live one")
	assert.Equal(t, 1, capture.Live(), "late stream released")
	_, err = s.Frame()
	assert.NoError(t, err)
}

func TestSession_TorchWithOddCapabilities(t *testing.T) {
	capture := memory.NewCapture(memory.WithCapabilities(map[string]any{"torch": true, "width": 1280}))
	s := camera.NewSession(capture)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	assert.True(t, s.Capabilities().SupportsTorch())
	require.NoError(t, s.SetTorch(ctx, true))
	assert.True(t, s.Torch())
}

func TestDecodeCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    domain.CapabilitySet
		wantErr bool
	}{
		{
			name: "nil",
			raw:  nil,
			want: domain.CapabilitySet{},
		},
		{
			name: "weak types",
			raw:  map[string]any{"torch": "true", "focusMode": "continuous"},
			want: domain.CapabilitySet{Torch: true, FocusModes: []string{"continuous"}},
		},
		{
			name:    "bad torch",
			raw:     map[string]any{"torch": map[string]any{"bad": 1}},
			want:    domain.CapabilitySet{},
			wantErr: true,
		},
		{
			name:    "bad range keeps torch",
			raw:     map[string]any{"torch": true, "width": 1280},
			want:    domain.CapabilitySet{Torch: true},
			wantErr: true,
		},
		{
			name: "ranges",
			raw: map[string]any{
				"torch":  false,
				"zoom":   map[string]any{"min": 1, "max": 4},
				"height": map[string]any{"min": 1, "max": 1080, "step": 1},
			},
			want: domain.CapabilitySet{
				Zoom:   &domain.Range{Min: 1, Max: 4},
				Height: &domain.Range{Min: 1, Max: 1080, Step: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps, err := camera.DecodeCapabilities(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, caps)
		})
	}
}
