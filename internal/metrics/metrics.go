package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coursehub/notify/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	JobsDone         *prometheus.CounterVec
	JobsFailed       *prometheus.CounterVec
	JobLatency       *prometheus.HistogramVec
	DeliveriesSent   *prometheus.CounterVec
	DeliveriesFailed *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_jobs_done_total",
			Help: "Total number of jobs whose dispatch completed.",
		}, []string{"kind"}),

		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_jobs_failed_total",
			Help: "Total number of job dispatch failures (including ones later retried).",
		}, []string{"kind"}),

		JobLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notify_job_seconds",
			Help:    "Job processing latency from dequeue to outcome bookkeeping.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		DeliveriesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_deliveries_sent_total",
			Help: "Total per-channel delivery attempts that succeeded.",
		}, []string{"channel"}),

		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_deliveries_failed_total",
			Help: "Total per-channel delivery attempts that failed (including no-token skips).",
		}, []string{"channel"}),
	}

	reg.MustRegister(
		m.JobsDone,
		m.JobsFailed,
		m.JobLatency,
		m.DeliveriesSent,
		m.DeliveriesFailed,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
// Centralises the prometheus observation calls so worker.go stays import-free.
func (m *Metrics) WorkerHooks() (
	onJobDone func(domain.JobKind, time.Duration),
	onJobFailed func(domain.JobKind),
	onDelivery func(domain.Channel, bool),
) {
	onJobDone = func(kind domain.JobKind, latency time.Duration) {
		m.JobsDone.WithLabelValues(string(kind)).Inc()
		m.JobLatency.WithLabelValues(string(kind)).Observe(latency.Seconds())
	}
	onJobFailed = func(kind domain.JobKind) {
		m.JobsFailed.WithLabelValues(string(kind)).Inc()
	}
	onDelivery = func(ch domain.Channel, success bool) {
		if success {
			m.DeliveriesSent.WithLabelValues(string(ch)).Inc()
		} else {
			m.DeliveriesFailed.WithLabelValues(string(ch)).Inc()
		}
	}
	return
}
