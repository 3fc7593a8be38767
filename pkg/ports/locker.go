package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a device lock.
type UnlockFunc func(ctx context.Context) error

// DeviceLocker defines the interface for distributed exclusive access to a camera device.
// It allows several scanner processes on the same host (or fleet) to agree that only one
// session holds a device at a time.
type DeviceLocker interface {
	// Lock attempts to acquire the lock for the given key (e.g. the device ID).
	// It blocks until the lock is acquired or the context is canceled.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
