package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/api/handler"
	apimw "github.com/coursehub/notify/internal/api/middleware"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.EnqueueService,
	q *queue.JobQueue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	nh := handler.NewNotifyHandler(svc, logger)
	jh := handler.NewJobHandler(svc, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Enqueue operations, one per job kind.
		r.Post("/notify/user", nh.NotifyUser)
		r.Post("/notify/users", nh.NotifyUsers)
		r.Post("/notify/course", nh.NotifyCourse)
		r.Post("/notify/role", nh.NotifyRole)
		r.Post("/notify/batch", nh.NotifyBatch)

		// Job observability and push-token registration.
		r.Get("/jobs/{id}", jh.GetByID)
		r.Put("/push-token", jh.RegisterPushToken)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
