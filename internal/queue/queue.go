package queue

import (
	"context"
	"fmt"

	"github.com/coursehub/notify/internal/domain"
)

// Item is the minimal data placed on the queue.
// Workers fetch the full Job from the DB using the ID, keeping the queue
// lightweight and the persisted job data authoritative.
type Item struct {
	JobID string
	Kind  domain.JobKind
}

// JobQueue dispatches items to one buffered channel per job kind.
//
// One channel per kind gives the worker its delivery contract: a single
// consumer goroutine per kind processes one job at a time for that kind,
// while jobs of different kinds proceed independently. FIFO holds per kind
// (channel ordering); nothing is guaranteed across kinds.
type JobQueue struct {
	kinds map[domain.JobKind]chan Item
}

// New creates a JobQueue with the given buffer capacity per kind channel.
func New(capacity int) *JobQueue {
	kinds := make(map[domain.JobKind]chan Item, len(domain.Kinds()))
	for _, k := range domain.Kinds() {
		kinds[k] = make(chan Item, capacity)
	}
	return &JobQueue{kinds: kinds}
}

// Enqueue places an item on its kind's channel.
// It is non-blocking: if the channel is full, ErrQueueFull is returned
// immediately rather than blocking the caller (the HTTP handler).
func (q *JobQueue) Enqueue(item Item) error {
	ch, ok := q.kinds[item.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidJobKind, item.Kind)
	}
	select {
	case ch <- item:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until an item of the given kind is available or ctx is
// cancelled. Returns (Item{}, false) on cancellation (graceful shutdown).
func (q *JobQueue) Dequeue(ctx context.Context, kind domain.JobKind) (Item, bool) {
	ch, ok := q.kinds[kind]
	if !ok {
		return Item{}, false
	}
	select {
	case item := <-ch:
		return item, true
	case <-ctx.Done():
		return Item{}, false
	}
}

// Depths returns the current number of items waiting per kind.
// Used by the metrics handler for the queue-depth snapshot.
func (q *JobQueue) Depths() map[domain.JobKind]int {
	depths := make(map[domain.JobKind]int, len(q.kinds))
	for k, ch := range q.kinds {
		depths[k] = len(ch)
	}
	return depths
}
