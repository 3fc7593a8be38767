package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// Combine merges hook sets. Each callback runs the non-nil callbacks of
// every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStatusChange = chain(out.OnStatusChange, h.OnStatusChange)
		out.OnDecodeAttempt = chain(out.OnDecodeAttempt, h.OnDecodeAttempt)
		out.OnDecodeError = chain(out.OnDecodeError, h.OnDecodeError)
		out.OnDetect = chain(out.OnDetect, h.OnDetect)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks audits transitions and detections through logger.
// Decode attempts are too frequent to log and are left to metrics.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.InfoContext(ctx, "status_change",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
			)
		},
		OnDetect: func(ctx context.Context, e *domain.DetectEvent) {
			logger.InfoContext(ctx, "detect",
				"session_id", e.SessionID,
				"isbn", e.ISBN,
				"raw", e.Raw,
				"still", e.Still,
			)
		},
	}
}
