package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// EventRecorder is a shared.EventHandler that keeps every event it receives.
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewEventRecorder creates a recorder for eventTypes, or for every event
// when none are given.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to.
func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

// Handle records event and returns the configured error.
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event)
	return r.err
}

// Handled returns a copy of the recorded events.
func (r *EventRecorder) Handled() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.handled))
	copy(out, r.handled)
	return out
}

// Types returns the recorded event types in arrival order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.handled))
	for i, e := range r.handled {
		types[i] = e.EventType()
	}
	return types
}

// Count returns the number of recorded events.
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handled)
}

// SetError makes Handle fail with err.
func (r *EventRecorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Reset clears recorded events and the configured error.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = nil
	r.err = nil
}

// WaitForCount waits until at least n events were recorded.
func (r *EventRecorder) WaitForCount(n int, timeout time.Duration) bool {
	return WaitForCondition(func() bool { return r.Count() >= n }, timeout, 10*time.Millisecond)
}

// TestEvent is a bare domain event for bus tests.
type TestEvent struct {
	shared.BaseDomainEvent
}

// NewTestEvent creates an event of eventType on a fresh aggregate.
func NewTestEvent(eventType, aggregateType string) *TestEvent {
	return &TestEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType, uuid.New())}
}

var _ shared.EventHandler = (*EventRecorder)(nil)
