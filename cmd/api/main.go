package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/tdg5/reqless-go/internal/api"
	"github.com/tdg5/reqless-go/internal/config"
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

	gin.SetMode(gin.ReleaseMode)
	srv := api.NewServer(client, api.WithLogger(logger), api.WithAPIKey(cfg.APIKey))
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		logger.Error("api server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("api shutdown complete")
}
