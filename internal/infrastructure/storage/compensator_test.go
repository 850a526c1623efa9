package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// flakyBlobs fails the first failures deletes of every id
type flakyBlobs struct {
	mu       sync.Mutex
	failures int
	attempts map[string]int
	deleted  []string
}

func newFlakyBlobs(failures int) *flakyBlobs {
	return &flakyBlobs{failures: failures, attempts: map[string]int{}}
}

func (f *flakyBlobs) Upload(context.Context, appproc.Upload, string, string) (shared.MediaRef, error) {
	return shared.MediaRef{}, errors.New("not used")
}

func (f *flakyBlobs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[id]++
	if f.attempts[id] <= f.failures {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	queued int
}

func (m *countingMetrics) CompensationQueued(context.Context) {
	m.mu.Lock()
	m.queued++
	m.mu.Unlock()
}

func newTestCompensator(t *testing.T, blobs appproc.BlobUploader, queue cache.DeletionQueue, metrics CompensationMetrics) *Compensator {
	return NewCompensator(blobs, queue,
		WithMaxRetries(2),
		WithInitialBackoff(time.Millisecond),
		WithCompensationMetrics(metrics),
		WithCompensatorLogger(zaptest.NewLogger(t)),
	)
}

func TestCompensator_RetriesThenDeletes(t *testing.T) {
	blobs := newFlakyBlobs(2)
	queue := cache.NewInMemoryDeletionQueue()
	metrics := &countingMetrics{}

	newTestCompensator(t, blobs, queue, metrics).Compensate(context.Background(), "a", "", "b")

	assert.Equal(t, []string{"a", "b"}, blobs.deleted)
	assert.Equal(t, 3, blobs.attempts["a"])
	n, _ := queue.Len(context.Background())
	assert.Zero(t, n)
	assert.Zero(t, metrics.queued)
}

func TestCompensator_QueuesAfterExhaustionAndDrains(t *testing.T) {
	blobs := newFlakyBlobs(4)
	queue := cache.NewInMemoryDeletionQueue()
	metrics := &countingMetrics{}
	c := newTestCompensator(t, blobs, queue, metrics)
	ctx := context.Background()

	c.Compensate(ctx, "receipt")
	assert.Empty(t, blobs.deleted)
	assert.Equal(t, 1, metrics.queued)
	n, _ := queue.Len(ctx)
	assert.Equal(t, int64(1), n)

	// fourth attempt still fails and goes back on the queue
	deleted, err := c.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	n, _ = queue.Len(ctx)
	assert.Equal(t, int64(1), n)

	deleted, err = c.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"receipt"}, blobs.deleted)
	n, _ = queue.Len(ctx)
	assert.Zero(t, n)
}

func TestCompensator_CancelledContextQueues(t *testing.T) {
	blobs := newFlakyBlobs(100)
	queue := cache.NewInMemoryDeletionQueue()
	c := NewCompensator(blobs, queue, WithMaxRetries(50), WithInitialBackoff(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Compensate(ctx, "qc")

	n, _ := queue.Len(context.Background())
	assert.Equal(t, int64(1), n)
}

func TestCompensator_Run(t *testing.T) {
	blobs := newFlakyBlobs(0)
	queue := cache.NewInMemoryDeletionQueue()
	require.NoError(t, queue.Push(context.Background(), "x", "y"))
	c := newTestCompensator(t, blobs, queue, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, _ := queue.Len(context.Background())
		return n == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	assert.ElementsMatch(t, []string{"x", "y"}, blobs.deleted)
}
