package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/roi"
)

// StartScan starts the sampling loop on a Ready camera. It is a no-op while
// already Scanning. The loop outlives ctx cancellation; only StopScan,
// a detection or StopCamera end it.
func (c *Controller) StartScan(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case domain.StatusScanning:
		c.unlock(ctx)
		return nil
	case domain.StatusReady:
	default:
		status := c.status
		c.unlock(ctx)
		return fmt.Errorf("%w: cannot scan while %s", domain.ErrInvalidTransition, status)
	}

	c.transitionLocked(domain.StatusScanning)
	decoder, err := c.decoders(c.symbologies)
	if err != nil {
		c.transitionLocked(domain.StatusError)
		c.noticeLocked(domain.Notice{
			Level:       domain.NoticeDestructive,
			Title:       "Scanner error",
			Description: err.Error(),
		})
		c.transitionLocked(domain.StatusReady)
		c.unlock(ctx)
		c.logger.Error("decoder initialization failed", "err", err)
		return fmt.Errorf("decoder: %w", err)
	}

	c.runs++
	run := &scanRun{
		id:      c.runs,
		ctx:     context.WithoutCancel(ctx),
		decoder: decoder,
		roi:     roi.NewTracker(c.roiOpts...),
	}
	c.run = run
	run.cancel = c.scheduler.RequestFrame(func() { c.tick(run) })
	c.unlock(ctx)

	c.logger.Debug("scan started", "run", run.id)
	return nil
}

// StopScan cancels the sampling loop and returns to Ready. It is a no-op
// unless Scanning. A tick already decoding when StopScan returns has its
// result discarded.
func (c *Controller) StopScan(ctx context.Context) error {
	c.mu.Lock()
	if c.status != domain.StatusScanning {
		c.unlock(ctx)
		return nil
	}
	c.stopRunLocked()
	c.transitionLocked(domain.StatusReady)
	c.unlock(ctx)
	return nil
}

// stopRunLocked cancels the pending frame request and retires the current run.
func (c *Controller) stopRunLocked() {
	if c.run == nil {
		return
	}
	if c.run.cancel != nil {
		c.run.cancel()
		c.run.cancel = nil
	}
	c.logger.Debug("scan stopped", "run", c.run.id)
	c.run = nil
}

// tick samples one frame for run.
func (c *Controller) tick(run *scanRun) {
	c.mu.Lock()
	if c.run != run || run.locked {
		c.mu.Unlock()
		return
	}
	run.cancel = nil
	sessionID := c.sessionID
	c.mu.Unlock()

	if c.sample(run, sessionID) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != run || run.locked {
		return
	}
	run.cancel = c.scheduler.RequestFrame(func() { c.tick(run) })
}

// sample decodes the ROI of the current frame and reports whether it produced a detection.
func (c *Controller) sample(run *scanRun, sessionID string) bool {
	frame, err := c.camera.Frame()
	if err != nil {
		c.logger.Debug("frame unavailable", "run", run.id, "err", err)
		return false
	}
	if frame == nil {
		return false
	}
	region, ok := run.roi.Get(frame.Width, frame.Height)
	if !ok {
		// Stream still warming up.
		return false
	}

	start := time.Now()
	res := run.decoder.Decode(frame, region)
	c.emitDecode(run.ctx, sessionID, res, time.Since(start), false)

	switch res.Outcome {
	case domain.DecodeError:
		if c.errLimiter.Allow() {
			c.logger.Warn("decode failed", "session_id", sessionID, "run", run.id, "err", res.Err)
		}
	case domain.DecodeFound:
		id, ok := c.normalize(res.Text)
		if !ok {
			c.logger.Debug("rejected non-ISBN symbol", "text", res.Text, "format", res.Format)
			return false
		}
		return c.detect(run.ctx, claim{run: run}, id, res.Text)
	}
	return false
}

// claim identifies what a detection was decoded from. A loop detection is
// only valid while its run is current. A still detection is only valid in
// the session it started in, and only if nothing was detected meanwhile.
type claim struct {
	run       *scanRun
	still     bool
	sessionID string
	seq       uint64
}

// detect commits a validated ISBN: lock the run, stop the loop, emit once,
// then settle on Ready. A still detection locks whatever loop is current.
// It reports false when another path already claimed the detection or the
// camera went away.
func (c *Controller) detect(ctx context.Context, cl claim, id, raw string) bool {
	c.mu.Lock()
	current := c.run
	switch {
	case !cl.still && current != cl.run,
		cl.still && (c.sessionID != cl.sessionID || c.detections != cl.seq),
		cl.still && cl.run != nil && current != cl.run:
		c.mu.Unlock()
		return false
	}
	if current != nil {
		if current.locked {
			c.mu.Unlock()
			return false
		}
		current.locked = true
		c.stopRunLocked()
	}
	if c.status != domain.StatusScanning && c.status != domain.StatusReady {
		c.unlock(ctx)
		return false
	}
	sessionID := c.sessionID
	c.detections++
	c.lastDetected = id
	c.transitionLocked(domain.StatusDetected)
	c.unlock(ctx)

	c.logger.Info("isbn detected", "session_id", sessionID, "isbn", id, "still", cl.still)

	if c.sink != nil {
		if err := c.sink.Accept(ctx, id); err != nil {
			c.logger.Error("result sink rejected detection", "isbn", id, "err", err)
		}
	}
	if c.hooks.OnDetect != nil {
		c.hooks.OnDetect(ctx, &domain.DetectEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventDetect,
				SessionID: sessionID,
			},
			ISBN:  id,
			Raw:   raw,
			Still: cl.still,
		})
	}

	c.mu.Lock()
	c.noticeLocked(domain.Notice{
		Level:       domain.NoticeSuccess,
		Title:       "ISBN Captured",
		Description: id,
	})
	if c.status == domain.StatusDetected && c.sessionID == sessionID {
		c.transitionLocked(domain.StatusReady)
	}
	c.unlock(ctx)
	return true
}

// DecodeStill decodes the whole current frame once. A valid ISBN goes
// through the same detection path as the loop; otherwise a "no code" notice
// is shown and ErrNoCodeFound returned with the state unchanged.
func (c *Controller) DecodeStill(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.status != domain.StatusReady && c.status != domain.StatusScanning {
		status := c.status
		c.unlock(ctx)
		return "", fmt.Errorf("%w: cannot decode a still while %s", domain.ErrInvalidTransition, status)
	}
	run := c.run
	sessionID := c.sessionID
	seq := c.detections
	c.presentLocked(domain.LabelDecodingStill)
	c.unlock(ctx)

	frame, err := c.camera.Frame()
	if err != nil {
		c.stillFailed(ctx, domain.NoticeDestructive, "Decode failed", err.Error())
		return "", err
	}
	if !frame.Ready() {
		c.stillFailed(ctx, domain.NoticeInfo, "No barcode detected", "Camera is still warming up")
		return "", ErrNoCodeFound
	}

	var decoder ports.Decoder
	if run != nil {
		decoder = run.decoder
	} else if decoder, err = c.decoders(c.symbologies); err != nil {
		c.stillFailed(ctx, domain.NoticeDestructive, "Decode failed", err.Error())
		return "", fmt.Errorf("decoder: %w", err)
	}

	start := time.Now()
	res := decoder.Decode(frame, domain.FullFrame(frame.Width, frame.Height))
	c.emitDecode(ctx, sessionID, res, time.Since(start), true)

	switch res.Outcome {
	case domain.DecodeFound:
		if id, ok := c.normalize(res.Text); ok {
			cl := claim{run: run, still: true, sessionID: sessionID, seq: seq}
			if !c.detect(ctx, cl, id, res.Text) {
				c.mu.Lock()
				c.presentLocked(c.status.Label())
				c.unlock(ctx)
				return "", fmt.Errorf("%w: %s", ErrStillSuperseded, id)
			}
			return id, nil
		}
	case domain.DecodeError:
		if c.errLimiter.Allow() {
			c.logger.Warn("still decode failed", "session_id", sessionID, "err", res.Err)
		}
	}

	c.stillFailed(ctx, domain.NoticeInfo, "No barcode detected", "Try better lighting and alignment")
	return "", ErrNoCodeFound
}

func (c *Controller) stillFailed(ctx context.Context, level domain.NoticeLevel, title, description string) {
	c.mu.Lock()
	c.presentLocked(domain.LabelNoCodeInStill)
	c.noticeLocked(domain.Notice{
		Level:       level,
		Title:       title,
		Description: description,
	})
	c.unlock(ctx)
}
