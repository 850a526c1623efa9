package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// CompensationMetrics counts deletes that had to be queued
type CompensationMetrics interface {
	CompensationQueued(ctx context.Context)
}

// Compensator deletes blobs orphaned by failed database writes. Each delete
// is retried with exponential backoff; ids that still fail are queued and
// retried by Drain.
type Compensator struct {
	blobs          appproc.BlobUploader
	queue          cache.DeletionQueue
	maxRetries     uint64
	initialBackoff time.Duration
	metrics        CompensationMetrics
	logger         *zap.Logger
}

// CompensatorOption is a functional option for configuring Compensator
type CompensatorOption func(*Compensator)

// WithMaxRetries sets how many times a delete is retried before queueing
func WithMaxRetries(n int) CompensatorOption {
	return func(c *Compensator) {
		if n >= 0 {
			c.maxRetries = uint64(n)
		}
	}
}

// WithInitialBackoff sets the first retry delay
func WithInitialBackoff(d time.Duration) CompensatorOption {
	return func(c *Compensator) {
		if d > 0 {
			c.initialBackoff = d
		}
	}
}

// WithCompensationMetrics sets the metrics sink
func WithCompensationMetrics(m CompensationMetrics) CompensatorOption {
	return func(c *Compensator) {
		c.metrics = m
	}
}

// WithCompensatorLogger sets the logger
func WithCompensatorLogger(logger *zap.Logger) CompensatorOption {
	return func(c *Compensator) {
		c.logger = logger
	}
}

// NewCompensator creates a compensator deleting through blobs
func NewCompensator(blobs appproc.BlobUploader, queue cache.DeletionQueue, opts ...CompensatorOption) *Compensator {
	c := &Compensator{
		blobs:          blobs,
		queue:          queue,
		maxRetries:     5,
		initialBackoff: 200 * time.Millisecond,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compensate deletes every id, queueing the ones that keep failing
func (c *Compensator) Compensate(ctx context.Context, publicIDs ...string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		err := backoff.Retry(func() error {
			return c.blobs.Delete(ctx, id)
		}, backoff.WithContext(backoff.WithMaxRetries(c.policy(), c.maxRetries), ctx))
		if err == nil {
			c.logger.Info("Deleted orphaned media", zap.String("public_id", id))
			continue
		}

		c.logger.Warn("Queueing orphaned media delete",
			zap.String("public_id", id),
			zap.Uint64("retries", c.maxRetries),
			zap.Error(err),
		)
		if qerr := c.queue.Push(context.WithoutCancel(ctx), id); qerr != nil {
			c.logger.Error("Failed to queue orphaned media delete",
				zap.String("public_id", id),
				zap.Error(qerr),
			)
			continue
		}
		if c.metrics != nil {
			c.metrics.CompensationQueued(ctx)
		}
	}
}

// Drain makes one pass over the queue. Each id gets a single delete attempt
// and is pushed back on failure. It returns the number deleted.
func (c *Compensator) Drain(ctx context.Context) (int, error) {
	pending, err := c.queue.Len(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for range pending {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		id, ok, err := c.queue.Pop(ctx)
		if err != nil {
			return deleted, err
		}
		if !ok {
			break
		}
		if err := c.blobs.Delete(ctx, id); err != nil {
			c.logger.Warn("Pending media delete failed again", zap.String("public_id", id), zap.Error(err))
			if err := c.queue.Push(context.WithoutCancel(ctx), id); err != nil {
				return deleted, err
			}
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Run drains the queue every interval until ctx is done
func (c *Compensator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Drain(ctx)
			if err != nil && ctx.Err() == nil {
				c.logger.Error("Draining pending media deletes failed", zap.Error(err))
			}
			if n > 0 {
				c.logger.Info("Drained pending media deletes", zap.Int("deleted", n))
			}
		}
	}
}

func (c *Compensator) policy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = 10 * c.initialBackoff
	policy.MaxElapsedTime = 0
	return policy
}

// Ensure Compensator implements MediaCompensator
var _ appproc.MediaCompensator = (*Compensator)(nil)
