package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if this holder still owns it.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// refreshScript extends the lock TTL only if this holder still owns it.
const refreshScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// Locker implements ports.DeviceLocker using Redis.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
	logger *slog.Logger
}

// LockerOption configures the Locker.
type LockerOption func(*Locker)

// WithLockerLogger configures the logger used by the lock keepalive.
func WithLockerLogger(logger *slog.Logger) LockerOption {
	return func(l *Locker) {
		l.logger = logger
	}
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires a distributed lock for the given key using Redis SET NX PX.
// While held, the TTL is extended every ttl/3, so the lock only expires when
// the holder dies. A zero ttl holds the lock until it is released.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	// Random owner token, so a holder whose lock expired cannot delete its successor's.
	val := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		success, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if success {
			stop := l.keepAlive(ctx, lockKey, val, ttl)
			return func(ctx context.Context) error {
				stop()
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, val).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			// Retry...
		}
	}
}

// keepAlive refreshes the lock until the returned stop function is called
// or ownership is lost. The refresh outlives the acquiring context.
func (l *Locker) keepAlive(ctx context.Context, lockKey, val string, ttl time.Duration) func() {
	if ttl <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			owned, err := l.client.Eval(ctx, refreshScript, []string{lockKey}, val, ttl.Milliseconds()).Int()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				l.logger.Warn("lock refresh failed, retrying", "key", lockKey, "err", err)
			case owned == 0:
				l.logger.Error("lock lost before release", "key", lockKey)
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
