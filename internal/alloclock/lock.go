// Package alloclock serializes allocation-ceiling checks per (entity, day).
// Two concurrent inserts for the same resource and date could each read a
// stale total and both pass the 100% check; holding this lock across the
// read-validate-write sequence closes that race.
package alloclock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/pkg/config"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// ErrLockUnavailable is returned when the lock cannot be acquired. Unlike a
// dedup check this fails closed: without the lock the ceiling check is not
// trustworthy, so the write is rejected.
var ErrLockUnavailable = fmt.Errorf("allocation lock unavailable")

type Locker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient builds the redis client backing the locker.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	return &Locker{rdb: rdb, ttl: ttl, logger: logger}
}

func key(entity, entityKey string, day dates.Date) string {
	return fmt.Sprintf("alloc:%s:%s:%s", entity, entityKey, day)
}

// Acquire takes the per-(entity, day) lock, retrying briefly while another
// request holds it. The TTL bounds how long a crashed holder can block
// others. Callers must Release after commit or rollback.
func (l *Locker) Acquire(ctx context.Context, entity, entityKey string, day dates.Date) error {
	k := key(entity, entityKey, day)
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, k, 1, l.ttl).Result()
		if err != nil {
			l.logger.Error("Allocation lock acquire failed",
				zap.String("key", k),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			l.logger.Warn("Allocation lock contention timeout", zap.String("key", k))
			return ErrLockUnavailable
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Release drops the lock. Failures are logged only; the TTL will reap the
// key anyway.
func (l *Locker) Release(ctx context.Context, entity, entityKey string, day dates.Date) {
	k := key(entity, entityKey, day)
	if err := l.rdb.Del(ctx, k).Err(); err != nil {
		l.logger.Warn("Allocation lock release failed",
			zap.String("key", k),
			zap.Error(err),
		)
	}
}
