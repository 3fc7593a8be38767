package memory

import (
	"context"
	"sync"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// Presenter implements ports.Presenter by recording everything it is shown.
// Safe for concurrent use.
type Presenter struct {
	mu       sync.Mutex
	statuses []domain.StatusReport
	notices  []domain.Notice
}

// NewPresenter creates an empty recording presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// PresentStatus records the report.
func (p *Presenter) PresentStatus(ctx context.Context, report domain.StatusReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, report)
}

// PresentNotice records the notice.
func (p *Presenter) PresentNotice(ctx context.Context, notice domain.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, notice)
}

// Labels returns the label of every status report, in order.
func (p *Presenter) Labels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	labels := make([]string, len(p.statuses))
	for i, s := range p.statuses {
		labels[i] = s.Label
	}
	return labels
}

// Last returns the latest status report.
func (p *Presenter) Last() (domain.StatusReport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return domain.StatusReport{}, false
	}
	return p.statuses[len(p.statuses)-1], true
}

// Notices returns every notice shown so far.
func (p *Presenter) Notices() []domain.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Notice(nil), p.notices...)
}
