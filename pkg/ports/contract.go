package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDeviceLockerContract runs a suite of tests to verify that a DeviceLocker implementation
// adheres to the defined interface contract.
func RunDeviceLockerContract(t *testing.T, locker DeviceLocker) {
	ctx := context.Background()
	key := "contract-device-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock should not return error")
		require.NotNil(t, unlock)

		require.NoError(t, unlock(ctx), "Unlock should not return error")
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(waitCtx, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "second holder must wait until the context expires")

		require.NoError(t, unlock(ctx))

		again, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "lock must be free after unlock")
		assert.NoError(t, again(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer unlockA(ctx)

		unlockB, err := locker.Lock(ctx, key+"-b", 5*time.Second)
		require.NoError(t, err, "different devices must not contend")
		assert.NoError(t, unlockB(ctx))
	})
}
