package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appnotify "github.com/mayavriksh/backend/internal/application/notification"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when a message is dropped for lack of room
	ErrQueueFull = errors.New("notification queue full")
	// ErrNotifierStopped is returned by Send after Stop
	ErrNotifierStopped = errors.New("notifier stopped")
)

const sendTimeout = 30 * time.Second

type job struct {
	ctx context.Context
	msg appnotify.Message
}

// AsyncNotifier queues messages and delivers them on a fixed pool of workers
type AsyncNotifier struct {
	next    appnotify.Notifier
	logger  *zap.Logger
	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewAsyncNotifier starts workers delivering through next
func NewAsyncNotifier(next appnotify.Notifier, workers, queueSize int, logger *zap.Logger) *AsyncNotifier {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &AsyncNotifier{
		next:   next,
		logger: logger,
		queue:  make(chan job, queueSize),
	}
	n.wg.Add(workers)
	for range workers {
		go n.work()
	}
	return n
}

// Send enqueues the message without waiting for delivery
func (n *AsyncNotifier) Send(ctx context.Context, msg appnotify.Message) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return ErrNotifierStopped
	}

	select {
	case n.queue <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		return nil
	default:
		n.logger.Warn("Dropping notification, queue full",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return ErrQueueFull
	}
}

// Stop stops accepting messages and waits for the queue to drain or ctx
func (n *AsyncNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.stopped {
		n.stopped = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notification workers: %w", ctx.Err())
	}
}

func (n *AsyncNotifier) work() {
	defer n.wg.Done()
	for j := range n.queue {
		ctx, cancel := context.WithTimeout(j.ctx, sendTimeout)
		if err := n.next.Send(ctx, j.msg); err != nil {
			n.logger.Error("Failed to send notification",
				zap.String("to", j.msg.To),
				zap.String("subject", j.msg.Subject),
				zap.Error(err))
		}
		cancel()
	}
}

var _ appnotify.Notifier = (*AsyncNotifier)(nil)
