package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tdg5/reqless-go/internal/config"
	"github.com/tdg5/reqless-go/internal/job"
	"github.com/tdg5/reqless-go/internal/queue"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go serveMetrics(ctx, cfg.MetricsAddr, logger)

	rdb, err := queue.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("redis unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rdb.Close()

	source, err := queue.LoadScript(cfg.ScriptPath)
	if err != nil {
		logger.Error("reqless script unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	exec := queue.NewRedisExecutor(rdb, source, queue.WithExecutorLogger(logger))
	client := queue.NewClient(exec, queue.WithLogger(logger))

	w := queue.NewWorker(client, cfg.WorkerQueue, cfg.WorkerName, cfg.WorkerConcurrency,
		queue.WithWorkerLogger(logger),
		queue.WithPollInterval(cfg.PollInterval),
	)
	w.Handle("echo.process", func(_ context.Context, j *job.Job) error {
		logger.Info("echo", slog.String("jid", j.Jid), slog.String("data", j.Data))
		return nil
	})

	logger.Info("worker running",
		slog.String("queue", cfg.WorkerQueue),
		slog.String("worker", cfg.WorkerName),
		slog.Int("concurrency", cfg.WorkerConcurrency),
	)
	if err := w.Run(ctx); err != nil {
		logger.Error("worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}
