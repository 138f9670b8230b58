// Package queue defines the contract for enqueuing and consuming campaign-day
// records on their way to the history store.
package queue

import (
	"context"
	"sync"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/metrics"
)

const defaultQueueCapacity = 100_000

// Item is the payload type flowing through the queue.
type Item = model.CampaignDay

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an item to the queue.
	// Returns ErrFull or ErrClosed when the item was not enqueued.
	Enqueue(ctx context.Context, it Item) error

	// Dequeue returns the channel consumers range over.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Item

	// Len returns the current number of queued items.
	Len(ctx context.Context) int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting items. Queued items stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an item without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) error { //nolint:gocritic // hugeParam: Item is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.items <- it:
		metrics.UpdateQueueSize(len(q.items))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the underlying receive channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Item {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
