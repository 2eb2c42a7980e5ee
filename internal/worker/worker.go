package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/dispatch"
	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/repository"
)

// Worker is the consumer for a single job kind. It pulls one item at a time
// from that kind's queue channel, routes it to the dispatcher, and reports
// the outcome back to the job row for retry/observability bookkeeping.
type Worker struct {
	kind    domain.JobKind
	q       *queue.JobQueue
	jobs    repository.JobRepository
	disp    *dispatch.Dispatcher
	backoff []time.Duration
	logger  *zap.Logger

	// Hooks for metrics — injected by the pool so the worker stays metrics-agnostic.
	onJobDone   func(kind domain.JobKind, latency time.Duration)
	onJobFailed func(kind domain.JobKind)
	onDelivery  func(channel domain.Channel, success bool)
}

// NewWorker constructs a worker for one job kind. Hooks are optional (nil = no-op).
func NewWorker(
	kind domain.JobKind,
	q *queue.JobQueue,
	jobs repository.JobRepository,
	disp *dispatch.Dispatcher,
	backoff []time.Duration,
	logger *zap.Logger,
	onJobDone func(domain.JobKind, time.Duration),
	onJobFailed func(domain.JobKind),
	onDelivery func(domain.Channel, bool),
) *Worker {
	if onJobDone == nil {
		onJobDone = func(domain.JobKind, time.Duration) {}
	}
	if onJobFailed == nil {
		onJobFailed = func(domain.JobKind) {}
	}
	if onDelivery == nil {
		onDelivery = func(domain.Channel, bool) {}
	}
	return &Worker{
		kind: kind, q: q, jobs: jobs, disp: disp,
		backoff: backoff, logger: logger,
		onJobDone: onJobDone, onJobFailed: onJobFailed, onDelivery: onDelivery,
	}
}

// Run blocks until ctx is cancelled, processing one queue item per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.String("kind", string(w.kind)))
	for {
		item, ok := w.q.Dequeue(ctx, w.kind)
		if !ok {
			w.logger.Info("worker stopping", zap.String("kind", string(w.kind)))
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item queue.Item) {
	start := time.Now()
	log := w.logger.With(
		zap.String("job_id", item.JobID),
		zap.String("kind", string(item.Kind)),
	)

	job, err := w.jobs.GetByID(ctx, item.JobID)
	if err != nil {
		log.Error("failed to fetch job", zap.Error(err))
		return
	}

	// A retried item may race its own earlier completion; skip silently.
	if job.Status == domain.StatusDone {
		log.Debug("job already done before processing")
		return
	}

	if err := w.jobs.UpdateStatus(ctx, job.ID, domain.StatusProcessing); err != nil {
		log.Error("failed to mark as processing", zap.Error(err))
		return
	}

	summary, err := w.dispatchJob(ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("job dispatch failed",
			zap.Error(err),
			zap.Int("attempts", job.Attempts),
		)
		w.handleFailure(ctx, job, err)
		w.onJobFailed(job.Kind)
		return
	}

	if err := w.jobs.MarkDone(ctx, job.ID, summary); err != nil {
		log.Error("failed to mark as done", zap.Error(err))
		return
	}

	for _, r := range summary.Results {
		w.onDelivery(domain.ChannelPush, r.Push.Success)
		w.onDelivery(domain.ChannelEmail, r.Email.Success)
	}
	w.onJobDone(job.Kind, elapsed)

	log.Info("job dispatched",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Duration("latency", elapsed),
	)
}

// dispatchJob routes a job to the dispatcher. The kind switch is exhaustive
// over the closed enum; anything else is a fatal-to-that-job error that
// surfaces to the retry/failure bookkeeping, never a silent no-op.
func (w *Worker) dispatchJob(ctx context.Context, job *domain.Job) (domain.DispatchSummary, error) {
	p := job.Payload
	switch job.Kind {
	case domain.KindSendToUser:
		res, err := w.disp.Notify(ctx, p.Email, p.Title, p.Body, p.Data)
		if err != nil {
			return domain.DispatchSummary{}, err
		}
		return domain.NewDispatchSummary([]domain.TargetResult{res}), nil
	case domain.KindSendToUsers:
		return w.disp.NotifyMany(ctx, p.Emails, p.Title, p.Body, p.Data), nil
	case domain.KindSendToCourse:
		return w.disp.NotifyCourse(ctx, p.CourseID, p.Title, p.Body, p.Data)
	case domain.KindSendToRole:
		return w.disp.NotifyRole(ctx, p.Role, p.Title, p.Body, p.Data)
	case domain.KindSendBatch:
		return w.disp.NotifyBatch(ctx, p.Notifications), nil
	default:
		return domain.DispatchSummary{}, fmt.Errorf("%w: %q", domain.ErrInvalidJobKind, job.Kind)
	}
}

// handleFailure either schedules a retry (if attempts remain) or marks the
// job as permanently failed.
//
// Retry schedule uses the configured backoff table:
//
//	attempt 0 → backoff[0]  (default 10 s)
//	attempt 1 → backoff[1]  (default 60 s)
//	attempt N ≥ len(backoff) → last backoff entry (clamped)
func (w *Worker) handleFailure(ctx context.Context, job *domain.Job, dispatchErr error) {
	if job.Attempts >= job.MaxRetries {
		if err := w.jobs.MarkFailed(ctx, job.ID, dispatchErr.Error()); err != nil {
			w.logger.Error("failed to mark job as failed",
				zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	idx := job.Attempts
	if idx >= len(w.backoff) {
		idx = len(w.backoff) - 1
	}
	nextRetry := time.Now().UTC().Add(w.backoff[idx])

	if err := w.jobs.ScheduleRetry(ctx, job.ID, job.Attempts+1, nextRetry, dispatchErr.Error()); err != nil {
		w.logger.Error("failed to schedule retry",
			zap.String("job_id", job.ID), zap.Error(err))
	}
}
