package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLeaseTTL      = 30 * time.Second
	defaultRetryInterval = 100 * time.Millisecond
)

// releaseScript deletes the lease only if it is still held by this owner.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a ScopeLocker backed by Redis SET NX leases, for
// serializing scope work across processes.
type RedisLocker struct {
	client        *redis.Client
	leaseTTL      time.Duration
	retryInterval time.Duration
}

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

// WithLeaseTTL sets the lease expiry.
func WithLeaseTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.leaseTTL = ttl }
}

// WithRetryInterval sets how often acquisition is retried while contended.
func WithRetryInterval(interval time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.retryInterval = interval }
}

// NewRedisLocker creates a new Redis-backed scope locker.
func NewRedisLocker(client *redis.Client, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:        client,
		leaseTTL:      defaultLeaseTTL,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires a lease for the key, retrying until it succeeds or the
// context is cancelled.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	leaseKey := "tasklens:lock:" + key
	owner := uuid.New().String()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, leaseKey, owner, l.leaseTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{leaseKey}, owner).Err()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
