package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/shelfscan/internal/config"
	"github.com/aretw0/shelfscan/internal/presentation/tui"
	"github.com/aretw0/shelfscan/pkg/adapters/sink"
	"github.com/aretw0/shelfscan/pkg/domain"
)

// ScanOptions configures a live scan session.
type ScanOptions struct {
	// Count stops the session after that many detections. Zero scans until interrupted.
	Count int
	// JSON writes one JSON line per detection instead of console notices.
	JSON bool
	// Verbose also prints status labels.
	Verbose bool
	// Unique skips an ISBN identical to the previous detection.
	Unique bool
	Out    io.Writer
	Wiring Wiring
}

// RunScan opens the camera and keeps scanning, re-arming the loop after
// every detection, until ctx ends or Count detections were collected.
func RunScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ScanOptions) ([]tui.Detection, error) {
	results := sink.NewChan(16)
	rearm := make(chan struct{}, 1)

	w := opts.Wiring
	w.Sink = results
	w.Hooks = domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			if e.From == domain.StatusDetected && e.To == domain.StatusReady {
				select {
				case rearm <- struct{}{}:
				default:
				}
			}
		},
	}
	if opts.JSON {
		w.Sink = sink.Multi(results, sink.NewJSONWriter(opts.Out))
	} else if w.Presenter == nil {
		w.Presenter = tui.NewConsole(opts.Out, opts.Verbose)
	}

	rt, err := createController(ctx, cfg, logger, w)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("Scanner teardown failed", "err", err)
		}
	}()

	ctrl := rt.Controller
	if err := ctrl.StartCamera(ctx); err != nil {
		return nil, err
	}
	if err := ctrl.StartScan(ctx); err != nil {
		return nil, err
	}

	var detections []tui.Detection
	for {
		select {
		case <-ctx.Done():
			return detections, nil
		case id := <-results.C():
			if opts.Unique && len(detections) > 0 && detections[len(detections)-1].ISBN == id {
				continue
			}
			detections = append(detections, tui.Detection{ISBN: id, At: time.Now()})
			if opts.Count > 0 && len(detections) >= opts.Count {
				return detections, nil
			}
		case <-rearm:
			if err := ctrl.StartScan(ctx); err != nil {
				logger.Warn("Failed to resume scanning", "err", err)
			}
		}
	}
}
