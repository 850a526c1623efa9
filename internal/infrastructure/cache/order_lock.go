package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const orderLockPrefix = "lock:purchase-order:"

// RedisOrderLocker serializes payment and restock writers of one order
// across instances with a Redis lock.
type RedisOrderLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisOrderLocker creates a locker. A caller waits up to wait for a held
// lock; ttl bounds how long a crashed holder blocks others.
func NewRedisOrderLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisOrderLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		wait:   wait,
	}
}

// Lock obtains the order's lock. A lock that stays held past the wait time
// is reported as a concurrency conflict.
func (l *RedisOrderLocker) Lock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	key := orderLockPrefix + orderID.String()

	var retry redislock.RetryStrategy = redislock.NoRetry()
	if l.wait > 0 {
		const step = 50 * time.Millisecond
		retry = redislock.LimitRetry(redislock.LinearBackoff(step), int(l.wait/step))
	}

	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "Purchase order is being updated, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase order %s: %w", orderID, err)
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.L(ctx).Warn("Failed to release purchase order lock",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
	}, nil
}

// Ensure RedisOrderLocker implements OrderLocker
var _ appproc.OrderLocker = (*RedisOrderLocker)(nil)
