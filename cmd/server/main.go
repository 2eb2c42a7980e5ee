package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/api"
	"github.com/coursehub/notify/internal/config"
	"github.com/coursehub/notify/internal/db"
	"github.com/coursehub/notify/internal/dispatch"
	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/gateway"
	"github.com/coursehub/notify/internal/metrics"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/ratelimiter"
	"github.com/coursehub/notify/internal/repository"
	"github.com/coursehub/notify/internal/resolver"
	"github.com/coursehub/notify/internal/service"
	"github.com/coursehub/notify/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	classifier, err := domain.NewRoleClassifier(cfg.StudentEmailPattern, cfg.TeacherEmailDomain)
	if err != nil {
		logger.Fatal("failed to build role classifier", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.New(cfg.QueueCapacity)

	jobRepo := repository.NewPgJobRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)
	enrollRepo := repository.NewPgEnrollmentRepository(pool)

	pushGW := gateway.NewHTTPPushGateway(cfg.PushGatewayURL, cfg.GatewayTimeout)
	emailGW := gateway.NewWebhookEmailGateway(cfg.EmailWebhookURL, cfg.GatewayTimeout)
	limiter := ratelimiter.New(cfg.RateLimit)

	res := resolver.New(userRepo, enrollRepo)
	tokens := resolver.NewTokenLookup(userRepo, classifier)
	disp := dispatch.New(res, tokens, pushGW, emailGW, limiter, logger, cfg.ChunkSize, cfg.ChunkDelay)

	svc := service.NewEnqueueService(jobRepo, userRepo, classifier, q, cfg.JobMaxRetries, logger)

	// ---- workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onJobDone, onJobFailed, onDelivery := m.WorkerHooks()
	workerPool := worker.NewPool(q, jobRepo, disp, cfg.RetryBackoff, logger, worker.MetricHooks{
		OnJobDone:   onJobDone,
		OnJobFailed: onJobFailed,
		OnDelivery:  onDelivery,
	})
	workerPool.Start(workerCtx)

	retryW := worker.NewRetryWorker(jobRepo, q, cfg.RetryInterval, cfg.RecoveryGrace, logger)
	go retryW.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(svc, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal all workers to stop pulling new jobs.
	cancelWorkers()

	// 3. Wait for in-flight workers to finish their current job.
	workerPool.Wait()

	logger.Info("server stopped cleanly")
}
