package ports

import (
	"context"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// ResultSink receives a validated ISBN. The engine calls it once per detection
// and never retries on its behalf.
type ResultSink interface {
	Accept(ctx context.Context, isbn string) error
}

// Presenter is the UI/status collaborator. It is display-only.
type Presenter interface {
	PresentStatus(ctx context.Context, report domain.StatusReport)
	PresentNotice(ctx context.Context, notice domain.Notice)
}
