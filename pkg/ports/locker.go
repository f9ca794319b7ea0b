package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes report writes for one session across explorer
// processes sharing a store.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx ends. The lock expires
	// after ttl even if never released. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
