package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PendingDeletionsKey is the Redis list holding blob ids whose delete is
// still owed
const PendingDeletionsKey = "media:pending-deletions"

// DeletionQueue is a FIFO of blob public ids awaiting deletion
type DeletionQueue interface {
	Push(ctx context.Context, publicIDs ...string) error
	// Pop removes the oldest id. ok is false when the queue is empty.
	Pop(ctx context.Context) (publicID string, ok bool, err error)
	Len(ctx context.Context) (int64, error)
}

// RedisDeletionQueue stores the queue in a Redis list so it survives
// restarts and is shared by every instance.
type RedisDeletionQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisDeletionQueue creates a queue on PendingDeletionsKey
func NewRedisDeletionQueue(client redis.UniversalClient) *RedisDeletionQueue {
	return &RedisDeletionQueue{client: client, key: PendingDeletionsKey}
}

// Push appends ids to the tail
func (q *RedisDeletionQueue) Push(ctx context.Context, publicIDs ...string) error {
	if len(publicIDs) == 0 {
		return nil
	}
	values := make([]any, len(publicIDs))
	for i, id := range publicIDs {
		values[i] = id
	}
	if err := q.client.RPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("failed to queue pending deletions: %w", err)
	}
	return nil
}

// Pop removes the head
func (q *RedisDeletionQueue) Pop(ctx context.Context) (string, bool, error) {
	id, err := q.client.LPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to pop pending deletion: %w", err)
	}
	return id, true, nil
}

// Len returns the queue length
func (q *RedisDeletionQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending deletion count: %w", err)
	}
	return n, nil
}

// InMemoryDeletionQueue is the single-instance fallback used when Redis is
// disabled. Entries are lost on restart.
type InMemoryDeletionQueue struct {
	mu  sync.Mutex
	ids []string
}

// NewInMemoryDeletionQueue creates an empty queue
func NewInMemoryDeletionQueue() *InMemoryDeletionQueue {
	return &InMemoryDeletionQueue{}
}

// Push appends ids to the tail
func (q *InMemoryDeletionQueue) Push(_ context.Context, publicIDs ...string) error {
	q.mu.Lock()
	q.ids = append(q.ids, publicIDs...)
	q.mu.Unlock()
	return nil
}

// Pop removes the head
func (q *InMemoryDeletionQueue) Pop(context.Context) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return "", false, nil
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true, nil
}

// Len returns the queue length
func (q *InMemoryDeletionQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.ids)), nil
}

// NewDeletionQueue returns the Redis queue, or the in-memory one when client
// is nil
func NewDeletionQueue(client redis.UniversalClient) DeletionQueue {
	if client == nil {
		return NewInMemoryDeletionQueue()
	}
	return NewRedisDeletionQueue(client)
}

var (
	_ DeletionQueue = (*RedisDeletionQueue)(nil)
	_ DeletionQueue = (*InMemoryDeletionQueue)(nil)
)
