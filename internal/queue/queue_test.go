package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/queue"
)

func item(id string, k domain.JobKind) queue.Item {
	return queue.Item{JobID: id, Kind: k}
}

func TestJobQueue_BasicEnqueueDequeue(t *testing.T) {
	q := queue.New(16)
	ctx := context.Background()

	if err := q.Enqueue(item("1", domain.KindSendToUser)); err != nil {
		t.Fatal(err)
	}

	got, ok := q.Dequeue(ctx, domain.KindSendToUser)
	if !ok {
		t.Fatal("expected item, got nothing")
	}
	if got.JobID != "1" {
		t.Fatalf("expected id=1, got %s", got.JobID)
	}
}

// TestJobQueue_KindIsolation verifies items only surface on their own kind's
// channel: a send-batch consumer never sees send-to-user items.
func TestJobQueue_KindIsolation(t *testing.T) {
	q := queue.New(16)
	ctx := context.Background()

	_ = q.Enqueue(item("user-job", domain.KindSendToUser))
	_ = q.Enqueue(item("batch-job", domain.KindSendBatch))

	got, ok := q.Dequeue(ctx, domain.KindSendBatch)
	if !ok || got.JobID != "batch-job" {
		t.Fatalf("expected batch-job, got %+v ok=%v", got, ok)
	}

	got, ok = q.Dequeue(ctx, domain.KindSendToUser)
	if !ok || got.JobID != "user-job" {
		t.Fatalf("expected user-job, got %+v ok=%v", got, ok)
	}
}

// TestJobQueue_FIFOPerKind verifies ordering within one kind.
func TestJobQueue_FIFOPerKind(t *testing.T) {
	q := queue.New(16)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_ = q.Enqueue(item(id, domain.KindSendToCourse))
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue(ctx, domain.KindSendToCourse)
		if !ok || got.JobID != want {
			t.Fatalf("expected %s, got %+v ok=%v", want, got, ok)
		}
	}
}

// TestJobQueue_ContextCancellation verifies Dequeue returns (_, false)
// when the context is cancelled while blocking.
func TestJobQueue_ContextCancellation(t *testing.T) {
	q := queue.New(16)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx, domain.KindSendToRole)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ok=false after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

func TestJobQueue_ErrQueueFull(t *testing.T) {
	q := queue.New(1)

	if err := q.Enqueue(item("first", domain.KindSendToUsers)); err != nil {
		t.Fatalf("unexpected error on empty queue: %v", err)
	}
	if err := q.Enqueue(item("second", domain.KindSendToUsers)); err != domain.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// Other kinds still have room.
	if err := q.Enqueue(item("other", domain.KindSendBatch)); err != nil {
		t.Fatalf("unexpected error on a different kind: %v", err)
	}
}

func TestJobQueue_UnknownKind(t *testing.T) {
	q := queue.New(1)

	if err := q.Enqueue(item("x", domain.JobKind("send-fax"))); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestJobQueue_Depths(t *testing.T) {
	q := queue.New(16)

	_ = q.Enqueue(item("u", domain.KindSendToUser))
	_ = q.Enqueue(item("c1", domain.KindSendToCourse))
	_ = q.Enqueue(item("c2", domain.KindSendToCourse))

	depths := q.Depths()
	if depths[domain.KindSendToUser] != 1 {
		t.Fatalf("expected send-to-user depth 1, got %d", depths[domain.KindSendToUser])
	}
	if depths[domain.KindSendToCourse] != 2 {
		t.Fatalf("expected send-to-course depth 2, got %d", depths[domain.KindSendToCourse])
	}
	if depths[domain.KindSendBatch] != 0 {
		t.Fatalf("expected send-batch depth 0, got %d", depths[domain.KindSendBatch])
	}
}
