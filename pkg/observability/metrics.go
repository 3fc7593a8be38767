package observability

import (
	"context"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// allStatuses is the label set of the status gauge.
var allStatuses = []domain.Status{
	domain.StatusIdle,
	domain.StatusStarting,
	domain.StatusReady,
	domain.StatusScanning,
	domain.StatusDetected,
	domain.StatusError,
}

// Metrics holds the Prometheus collectors of one scanner.
type Metrics struct {
	transitions *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	detections  *prometheus.CounterVec
	status      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfscan_status_transitions_total",
				Help: "Total number of scan state machine transitions",
			},
			[]string{"from", "to"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfscan_decode_attempts_total",
				Help: "Total number of decode attempts by outcome",
			},
			[]string{"outcome", "mode"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfscan_decode_duration_seconds",
				Help:    "Duration of decode attempts",
				Buckets: []float64{.001, .0025, .005, .01, .016, .025, .05, .1, .25},
			},
			[]string{"mode"},
		),
		detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfscan_detections_total",
				Help: "Total number of validated ISBNs handed to the result sink",
			},
			[]string{"mode"},
		),
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelfscan_status",
				Help: "Current scan status (1 for the active state)",
			},
			[]string{"status"},
		),
	}
	for _, s := range allStatuses {
		m.status.WithLabelValues(string(s)).Set(0)
	}
	m.status.WithLabelValues(string(domain.StatusIdle)).Set(1)

	if reg != nil {
		reg.MustRegister(m.transitions, m.attempts, m.latency, m.detections, m.status)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			m.status.WithLabelValues(string(e.From)).Set(0)
			m.status.WithLabelValues(string(e.To)).Set(1)
		},
		OnDecodeAttempt: func(ctx context.Context, e *domain.DecodeEvent) {
			mode := modeOf(e.Still)
			m.attempts.WithLabelValues(e.Outcome.String(), mode).Inc()
			m.latency.WithLabelValues(mode).Observe(e.Duration.Seconds())
		},
		OnDetect: func(ctx context.Context, e *domain.DetectEvent) {
			m.detections.WithLabelValues(modeOf(e.Still)).Inc()
		},
	}
}

func modeOf(still bool) string {
	if still {
		return "still"
	}
	return "live"
}
