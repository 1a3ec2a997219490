package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EquityLockKey builds redis keys for per-business equity rewrite sections.
func EquityLockKey(businessID uuid.UUID) string {
	return fmt.Sprintf("equity:%s:lock", businessID)
}

// EquityLocker serialises equity rewrites per business. The lock is advisory:
// recomputation is convergent, so callers proceed unlocked when redis is down.
type EquityLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEquityLocker returns a locker with the given lease TTL.
func NewEquityLocker(client *redis.Client, ttl time.Duration) *EquityLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &EquityLocker{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire attempts to take the per-business lock. It returns a release
// function and whether the lock was obtained.
func (l *EquityLocker) Acquire(ctx context.Context, businessID uuid.UUID) (func(), bool) {
	if l == nil || l.client == nil {
		return func() {}, false
	}
	key := EquityLockKey(businessID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return func() {}, false
	}
	release := func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
	}
	return release, true
}
