package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/repository"
)

// RetryWorker polls the database and re-enqueues two classes of jobs:
//
//   - failed jobs whose next_retry_at is in the past (scheduled retries)
//   - queued/processing jobs not touched for longer than the grace interval,
//     whose in-memory queue item was lost to a restart or crash (stranded)
//
// Both are DB-backed, so retries and crash recovery survive server restarts:
// the job row is authoritative, the channel item is disposable. A recovered
// job may be delivered twice (at-least-once); the consumer skips rows already
// done.
type RetryWorker struct {
	jobs     repository.JobRepository
	q        *queue.JobQueue
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger
}

// NewRetryWorker constructs the worker. grace must comfortably exceed the
// longest expected queue wait plus job runtime, or busy kinds will see
// duplicate deliveries.
func NewRetryWorker(
	jobs repository.JobRepository,
	q *queue.JobQueue,
	interval time.Duration,
	grace time.Duration,
	logger *zap.Logger,
) *RetryWorker {
	return &RetryWorker{jobs: jobs, q: q, interval: interval, grace: grace, logger: logger}
}

// Run ticks every interval, re-enqueueing due retries and stranded jobs.
// Stops cleanly when ctx is cancelled.
func (rw *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("retry worker started",
		zap.Duration("interval", rw.interval),
		zap.Duration("recovery_grace", rw.grace),
	)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("retry worker stopping")
			return
		case <-ticker.C:
			rw.poll(ctx)
		}
	}
}

func (rw *RetryWorker) poll(ctx context.Context) {
	due, err := rw.jobs.FindDueRetries(ctx)
	if err != nil {
		rw.logger.Error("retry poll error", zap.Error(err))
		return
	}
	if n := rw.reenqueue(ctx, due); n > 0 {
		rw.logger.Info("re-enqueued due retries", zap.Int("count", n))
	}

	stranded, err := rw.jobs.FindStranded(ctx, time.Now().Add(-rw.grace))
	if err != nil {
		rw.logger.Error("stranded-job poll error", zap.Error(err))
		return
	}
	if n := rw.reenqueue(ctx, stranded); n > 0 {
		rw.logger.Warn("recovered stranded jobs", zap.Int("count", n))
	}
}

// reenqueue puts each job back on its kind's channel and resets the row to
// queued. The status update also bumps updated_at, taking the row out of the
// stranded window until the grace interval elapses again.
func (rw *RetryWorker) reenqueue(ctx context.Context, jobs []*domain.Job) int {
	n := 0
	for _, j := range jobs {
		if err := rw.q.Enqueue(queue.Item{JobID: j.ID, Kind: j.Kind}); err != nil {
			rw.logger.Warn("could not re-enqueue job",
				zap.String("job_id", j.ID), zap.Error(err))
			continue
		}

		if err := rw.jobs.UpdateStatus(ctx, j.ID, domain.StatusQueued); err != nil {
			rw.logger.Error("failed to update status after re-enqueue",
				zap.String("job_id", j.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
