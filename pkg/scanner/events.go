package scanner

import (
	"context"
	"time"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// outboxItem is a presenter or hook call queued under the controller mutex
// and delivered after it is released, so collaborators may read the
// controller without deadlocking.
type outboxItem struct {
	status *domain.StatusEvent
	report *domain.StatusReport
	notice *domain.Notice
}

// unlock releases the controller mutex and delivers everything queued while it was held.
func (c *Controller) unlock(ctx context.Context) {
	items := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, item := range items {
		if item.status != nil && c.hooks.OnStatusChange != nil {
			c.hooks.OnStatusChange(ctx, item.status)
		}
		if c.presenter == nil {
			continue
		}
		if item.report != nil {
			c.presenter.PresentStatus(ctx, *item.report)
		}
		if item.notice != nil {
			c.presenter.PresentNotice(ctx, *item.notice)
		}
	}
}

// transitionLocked moves the state machine and queues the report.
// Edges the machine does not allow are dropped and logged.
func (c *Controller) transitionLocked(to domain.Status) {
	from := c.status
	if !domain.CanTransition(from, to) {
		c.logger.Error("invalid transition", "from", from, "to", to, "session_id", c.sessionID)
		return
	}
	c.status = to

	report := c.reportLocked(to.Label())
	c.outbox = append(c.outbox, outboxItem{
		status: &domain.StatusEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventStatusChange,
				SessionID: c.sessionID,
			},
			From: from,
			To:   to,
		},
		report: &report,
	})
	c.logger.Debug("status", "from", from, "to", to, "session_id", c.sessionID)
}

// presentLocked queues a status report with a label that need not match the state.
func (c *Controller) presentLocked(label string) {
	report := c.reportLocked(label)
	c.outbox = append(c.outbox, outboxItem{report: &report})
}

func (c *Controller) noticeLocked(n domain.Notice) {
	c.outbox = append(c.outbox, outboxItem{notice: &n})
}

func (c *Controller) reportLocked(label string) domain.StatusReport {
	report := domain.StatusReport{
		SessionID:    c.sessionID,
		Status:       c.status,
		Label:        label,
		LastDetected: c.lastDetected,
		Torch:        c.camera.Torch(),
	}
	if c.run != nil {
		if r, ok := c.run.roi.Current(); ok {
			report.ROI = &r
		}
	}
	return report
}

func (c *Controller) emitDecode(ctx context.Context, sessionID string, res domain.DecodeResult, took time.Duration, still bool) {
	if c.hooks.OnDecodeAttempt == nil && c.hooks.OnDecodeError == nil {
		return
	}
	ev := &domain.DecodeEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventDecodeAttempt,
			SessionID: sessionID,
		},
		Outcome:  res.Outcome,
		Duration: took,
		Still:    still,
		Err:      res.Err,
	}
	if c.hooks.OnDecodeAttempt != nil {
		c.hooks.OnDecodeAttempt(ctx, ev)
	}
	if res.Outcome == domain.DecodeError && c.hooks.OnDecodeError != nil {
		errEv := *ev
		errEv.Type = domain.EventDecodeError
		c.hooks.OnDecodeError(ctx, &errEv)
	}
}
