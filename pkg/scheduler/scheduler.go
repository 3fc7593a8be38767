// Package scheduler provides ports.FrameScheduler implementations.
//
// Both schedulers follow requestAnimationFrame semantics: a request runs its
// callback once, on the next tick, unless it is cancelled first.
package scheduler

import (
	"sync"
	"time"

	"github.com/aretw0/shelfscan/pkg/ports"
)

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Interval schedules callbacks a fixed delay after the request.
type Interval struct {
	interval time.Duration
}

// NewInterval creates a timer-driven scheduler. Non-positive intervals use DefaultFrameInterval.
func NewInterval(interval time.Duration) *Interval {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Interval{interval: interval}
}

// RequestFrame runs fn once after the frame interval.
func (s *Interval) RequestFrame(fn func()) ports.CancelFunc {
	t := time.AfterFunc(s.interval, fn)
	return func() { t.Stop() }
}

// Manual is driven by its owner: each Tick runs the callbacks that were pending
// when the tick started. Callbacks requested during a tick wait for the next one.
// Hosts with their own render loop call Tick once per frame; tests use it to
// step the scan loop deterministically.
type Manual struct {
	mu      sync.Mutex
	pending []*request
}

type request struct {
	fn        func()
	cancelled bool
}

// NewManual creates an idle manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestFrame queues fn for the next Tick.
func (m *Manual) RequestFrame(fn func()) ports.CancelFunc {
	r := &request{fn: fn}
	m.mu.Lock()
	m.pending = append(m.pending, r)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		r.cancelled = true
		m.mu.Unlock()
	}
}

// Tick runs the pending callbacks and returns how many ran.
func (m *Manual) Tick() int {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	ran := 0
	for _, r := range batch {
		m.mu.Lock()
		cancelled := r.cancelled
		m.mu.Unlock()
		if cancelled {
			continue
		}
		r.fn()
		ran++
	}
	return ran
}

// Advance calls Tick n times and returns the total number of callbacks run.
func (m *Manual) Advance(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += m.Tick()
	}
	return total
}

// Pending returns the number of queued, non-cancelled requests.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.pending {
		if !r.cancelled {
			n++
		}
	}
	return n
}
