package redis

import (
	"context"
	"time"

	"checkout/internal/repository"
	"checkout/internal/service"
)

// LockStoreInterface defines the interface for per-order transition locks.
type LockStoreInterface interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, error)
	ReleaseOrderLock(ctx context.Context, orderID, token string) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ service.OrderCache        = (*CacheStore)(nil)
	_ repository.SeededSequence = (*SequenceStore)(nil)
)
