package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/shelfscan/pkg/adapters/redis"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunDeviceLockerContract(t, redis.NewLocker(client, "test:"))
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()
	key := "rear-camera"

	// 1. Acquire Lock
	unlock, err := locker.Lock(ctx, key, 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock)

	// Verify key set in redis
	assert.True(t, mr.Exists("test:lock:lock:rear-camera"), "Lock key should be set in Redis")

	// 2. Release Lock
	err = unlock(ctx)
	assert.NoError(t, err)

	// Verify key removed
	assert.False(t, mr.Exists("test:lock:lock:rear-camera"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:lock:")
	locker2 := redis.NewLocker(client, "test:lock:") // Same prefix -> contention
	ctx := context.Background()
	key := "shared-camera"

	// 1. Process 1 acquires lock
	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock1)

	// 2. Process 2 polls until its context expires
	ctxTimeout, cancel := context.WithTimeout(ctx, 500*time.Millisecond) // Short timeout
	defer cancel()

	start := time.Now()
	_, err = locker2.Lock(ctxTimeout, key, 5*time.Second)

	// Should fail due to timeout (Process 1 holds it)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.WithinDuration(t, start.Add(500*time.Millisecond), time.Now(), 150*time.Millisecond, "Should block until timeout")

	// 3. Process 1 unlocks
	err = unlock1(ctx)
	assert.NoError(t, err)

	// 4. Process 2 tries again (should succeed)
	unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
	assert.NoError(t, err)
	defer unlock2(ctx)

	assert.True(t, mr.Exists("test:lock:lock:shared-camera"))
}

func TestRedisLocker_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "rear", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("test:lock:rear"), "TTL should have expired")

	fresh, err := locker.Lock(ctx, "rear", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("test:lock:rear"), "stale holder must not delete the new lock")
	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("test:lock:rear"))
}

func TestRedisLocker_WithSessionManager(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	stationA := session.NewManager(session.WithLocker(locker), session.WithTTL(time.Minute))
	stationB := session.NewManager(session.WithLocker(locker), session.WithTTL(time.Minute))
	ctx := context.Background()

	release, err := stationA.Acquire(ctx, "usb-0")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = stationB.Acquire(waitCtx, "usb-0")
	assert.Error(t, err)

	require.NoError(t, release(ctx))
	release, err = stationB.Acquire(ctx, "usb-0")
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestRedisLocker_KeepAliveOutlivesTTL(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ttl := 300 * time.Millisecond
	stationA := session.NewManager(session.WithLocker(locker), session.WithTTL(ttl))
	stationB := session.NewManager(session.WithLocker(locker), session.WithTTL(ttl))
	ctx := context.Background()

	release, err := stationA.Acquire(ctx, "0")
	require.NoError(t, err)

	// Server time runs well past the TTL while the holder is alive.
	for i := 0; i < 10; i++ {
		mr.FastForward(100 * time.Millisecond)
		time.Sleep(150 * time.Millisecond)
	}
	assert.True(t, mr.Exists("test:lock:device:0"), "a live holder keeps its lock")

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = stationB.Acquire(waitCtx, "0")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("test:lock:device:0"))

	release, err = stationB.Acquire(ctx, "0")
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestRedisLocker_KeepAliveStopsOnUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()
	ttl := 150 * time.Millisecond

	unlock, err := locker.Lock(ctx, "rear", ttl)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))

	// A foreign holder takes the key; the released holder must not extend it.
	require.NoError(t, mr.Set("test:lock:rear", "someone-else"))
	mr.SetTTL("test:lock:rear", ttl)
	time.Sleep(2 * ttl)
	mr.FastForward(ttl)
	assert.False(t, mr.Exists("test:lock:rear"))
}
