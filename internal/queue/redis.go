package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tdg5/reqless-go/internal/config"
	"github.com/tdg5/reqless-go/internal/metrics"
)

const tracerName = "github.com/tdg5/reqless-go"

// Executor runs a reqless script command. A nil reply with a nil error means
// the script returned nothing (for example an unknown jid).
type Executor interface {
	Execute(ctx context.Context, command string, args ...any) (any, error)
}

// ExecutorOption configures a RedisExecutor.
type ExecutorOption func(*RedisExecutor)

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *RedisExecutor) { e.logger = l }
}

// WithTracer sets the tracer used for command spans.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *RedisExecutor) { e.tracer = t }
}

// WithClock overrides the time passed to every command.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *RedisExecutor) { e.now = now }
}

// RedisExecutor runs commands through the reqless Lua script with
// EVALSHA, loading the script on first use.
type RedisExecutor struct {
	client redis.Scripter
	script *redis.Script
	now    func() time.Time
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("reqless/queue: redis connect %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

// LoadScript reads the reqless Lua source from path.
func LoadScript(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: script path must not be empty", ErrInvalidArgument)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reqless/queue: load script: %w", err)
	}
	return string(b), nil
}

// NewRedisExecutor returns an executor for the given script source.
func NewRedisExecutor(client redis.Scripter, source string, opts ...ExecutorOption) *RedisExecutor {
	e := &RedisExecutor{
		client: client,
		script: redis.NewScript(source),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute invokes EVALSHA sha 0 command now-ms args...
func (e *RedisExecutor) Execute(ctx context.Context, command string, args ...any) (any, error) {
	ctx, span := e.tracer.Start(ctx, "reqless.execute",
		trace.WithAttributes(
			attribute.String("reqless.command", command),
			attribute.Int("reqless.args", len(args)),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	argv := make([]any, 0, len(args)+2)
	argv = append(argv, command, e.now().UnixMilli())
	argv = append(argv, args...)

	start := time.Now()
	res, err := e.script.Run(ctx, e.client, nil, argv...).Result()
	metrics.CommandDurationSeconds.WithLabelValues(command).Observe(time.Since(start).Seconds())

	if errors.Is(err, redis.Nil) {
		metrics.CommandsTotal.WithLabelValues(command, "ok").Inc()
		span.SetStatus(codes.Ok, "")
		return nil, nil
	}
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(command, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("command failed",
			slog.String("component", "executor"),
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reqless/queue: execute %s: %w", command, err)
	}

	metrics.CommandsTotal.WithLabelValues(command, "ok").Inc()
	span.SetStatus(codes.Ok, "")
	return res, nil
}
