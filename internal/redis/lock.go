package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's
// token, so an expired lock taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func orderLockKey(orderID string) string {
	return fmt.Sprintf("lock:order:%s", orderID)
}

// AcquireOrderLock attempts to acquire the transition lock for an order.
// It returns the token needed to release the lock, or "" if the lock is
// already held.
func (s *LockStore) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, orderLockKey(orderID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseOrderLock releases the transition lock for an order if token still
// owns it. Returns false when the lock had expired or changed hands.
func (s *LockStore) ReleaseOrderLock(ctx context.Context, orderID, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{orderLockKey(orderID)}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
