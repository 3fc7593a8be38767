package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
)

// holdEntry holds the device mutex and the reference count.
type holdEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager is the registry of camera devices held by scan sessions.
// It guarantees that at most one session holds a device at a time and uses
// reference counting to garbage collect unused entries.
type Manager struct {
	mu    sync.Mutex            // Global lock for the map
	holds map[string]*holdEntry // Map of device entries

	locker ports.DeviceLocker // Optional distributed locker
	ttl    time.Duration      // Distributed lock TTL, 0 holds until release
	prefix string
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking, so other processes sharing the
// locker backend cannot open the same device.
func WithLocker(locker ports.DeviceLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithTTL bounds how long a crashed holder keeps the distributed lock.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithPrefix namespaces the distributed lock keys.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty device registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		holds:  make(map[string]*holdEntry),
		prefix: "device:",
		logger: logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates an entry and increments its reference count.
// The caller MUST call release(deviceID) once it no longer needs the entry.
func (m *Manager) acquire(deviceID string) *holdEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.holds[deviceID]
	if !exists {
		entry = &holdEntry{}
		m.holds[deviceID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.holds[deviceID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.holds, deviceID)
	}
}

// Acquire takes exclusive hold of a device. It fails fast with
// domain.ErrDeviceBusy when the device is already held in this process, and
// waits on the distributed locker (bounded by ctx) otherwise.
// The returned function releases the hold; calling it twice is a no-op.
func (m *Manager) Acquire(ctx context.Context, deviceID string) (ports.UnlockFunc, error) {
	entry := m.acquire(deviceID)
	if !entry.mu.TryLock() {
		m.release(deviceID)
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceBusy, deviceID)
	}

	var unlock ports.UnlockFunc
	if m.locker != nil {
		var err error
		unlock, err = m.locker.Lock(ctx, m.prefix+deviceID, m.ttl)
		if err != nil {
			entry.mu.Unlock()
			m.release(deviceID)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrDeviceBusy, deviceID, err)
		}
	}

	m.logger.Debug("device acquired", "device_id", deviceID)

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			if unlock != nil {
				if err = unlock(ctx); err != nil {
					m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
						"device_id", deviceID,
						"err", err,
					)
				}
			}
			entry.mu.Unlock()
			m.release(deviceID)
			m.logger.Debug("device released", "device_id", deviceID)
		})
		return err
	}, nil
}

// Held returns the devices currently held, sorted.
func (m *Manager) Held() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.holds))
	for id := range m.holds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
