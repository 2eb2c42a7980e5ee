package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/dispatch"
	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnJobDone   func(kind domain.JobKind, latency time.Duration)
	OnJobFailed func(kind domain.JobKind)
	OnDelivery  func(channel domain.Channel, success bool)
}

// Pool manages the lifecycle of all kind consumers: exactly one worker per
// job kind, so each kind processes one job at a time while kinds proceed
// independently. Fan-out inside a single job is the dispatcher's business.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

func NewPool(
	q *queue.JobQueue,
	jobs repository.JobRepository,
	disp *dispatch.Dispatcher,
	backoff []time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	kinds := domain.Kinds()
	workers := make([]*Worker, len(kinds))

	for i, kind := range kinds {
		workers[i] = NewWorker(
			kind, q, jobs, disp, backoff,
			logger.With(zap.String("worker_kind", string(kind))),
			hooks.OnJobDone,
			hooks.OnJobFailed,
			hooks.OnDelivery,
		)
	}

	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context to ensure in-flight jobs finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
