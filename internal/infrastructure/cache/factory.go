// Package cache holds the Redis-backed pieces of the service: the client
// factory, the pending media deletion queue, and the per-order lock.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientOption is a functional option for NewRedisClient
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger         *zap.Logger
	connectTimeout time.Duration
}

// WithLogger sets the logger used while connecting
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithConnectTimeout bounds the total time spent retrying the first ping
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.connectTimeout = d
	}
}

// NewRedisClient connects to Redis, retrying the initial ping with
// exponential backoff until the connect timeout elapses.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, opts ...ClientOption) (*redis.Client, error) {
	o := clientOptions{logger: zap.NewNop(), connectTimeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = o.connectTimeout

	attempt := 0
	ping := func() error {
		attempt++
		err := client.Ping(ctx).Err()
		if err != nil {
			o.logger.Warn("Redis not reachable yet",
				zap.String("addr", cfg.Addr()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}
	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	o.logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return client, nil
}
