package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 25 * time.Millisecond

// lockManager holds the advisory per-game locks of one transaction. A lock
// is a bare key with a TTL: presence means held, the TTL frees peers from a
// crashed holder.
type lockManager struct {
	rdb       *redis.Client
	expiresIn time.Duration
	acquired  []string
}

func newLockManager(rdb *redis.Client, expiresIn time.Duration) *lockManager {
	return &lockManager{
		rdb:       rdb,
		expiresIn: expiresIn,
	}
}

// Acquire blocks until the lock for lockID is held by this transaction or
// ctx is done. Re-acquiring a lock already held here is a no-op.
func (l *lockManager) Acquire(ctx context.Context, lockID string) error {
	name := lockKey(lockID)
	if slices.Contains(l.acquired, name) {
		return nil
	}

	for {
		ok, err := l.rdb.SetNX(ctx, name, "", l.expiresIn).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if ok {
			l.acquired = append(l.acquired, name)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire lock %s: %w", name, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// ReleaseAll drops every lock this transaction holds.
func (l *lockManager) ReleaseAll(ctx context.Context) error {
	if len(l.acquired) == 0 {
		return nil
	}

	err := l.rdb.Del(ctx, l.acquired...).Err()
	l.acquired = l.acquired[:0]
	return err
}
