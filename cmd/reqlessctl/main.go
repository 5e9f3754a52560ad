package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tdg5/reqless-go/internal/cli"
	"github.com/tdg5/reqless-go/internal/config"
	"github.com/tdg5/reqless-go/internal/queue"
)

func main() {
	cfg := config.Load()

	connect := func(ctx context.Context) (cli.Reader, func(), error) {
		rdb, err := queue.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		source, err := queue.LoadScript(cfg.ScriptPath)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		logger := cfg.NewLogger()
		exec := queue.NewRedisExecutor(rdb, source, queue.WithExecutorLogger(logger))
		return queue.NewClient(exec, queue.WithLogger(logger)), func() { _ = rdb.Close() }, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
