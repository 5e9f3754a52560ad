package queue

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tdg5/reqless-go/internal/config"
	"github.com/tdg5/reqless-go/internal/metrics"
)

// testScript stands in for the reqless script: ARGV[1] is the command and
// ARGV[2] the time in milliseconds.
const testScript = `
local command = ARGV[1]
if command == "echo" then
	return table.concat(ARGV, ",")
elseif command == "job.get" then
	if ARGV[3] == "missing" then
		return false
	end
	return '{"jid":"' .. ARGV[3] .. '"}'
elseif command == "boom" then
	return redis.error_reply("boom")
end
return redis.error_reply("unknown command " .. command)
`

var fixedNow = time.UnixMilli(1700000000000)

func newTestExecutor(t *testing.T, opts ...ExecutorOption) *RedisExecutor {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	opts = append([]ExecutorOption{
		WithExecutorLogger(discardLogger()),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return NewRedisExecutor(rdb, testScript, opts...)
}

func TestRedisExecutor_PassesCommandAndTime(t *testing.T) {
	t.Parallel()

	e := newTestExecutor(t)
	res, err := e.Execute(context.Background(), "echo", "a", 2)
	require.NoError(t, err)
	assert.Equal(t, "echo,1700000000000,a,2", res)

	// Second call goes through EVALSHA with the cached script.
	res, err = e.Execute(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo,1700000000000", res)
}

func TestRedisExecutor_NilReply(t *testing.T) {
	t.Parallel()

	e := newTestExecutor(t)
	res, err := e.Execute(context.Background(), "job.get", "missing")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRedisExecutor_ScriptError(t *testing.T) {
	t.Parallel()

	e := newTestExecutor(t)
	before := testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues("boom", "error"))

	_, err := e.Execute(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute boom")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues("boom", "error")))
}

func TestRedisExecutor_WithClient(t *testing.T) {
	t.Parallel()

	c := newTestClient(newTestExecutor(t))
	_, err := c.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	// The stand-in reply is not a full job, so the decoder rejects it.
	_, err = c.GetJob(context.Background(), "jid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Required property 'data' not found.")
}

func TestRedisExecutor_Tracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newTestExecutor(t, WithTracer(tp.Tracer("test")))
	_, err := e.Execute(context.Background(), "echo", "x")
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), "boom")
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "reqless.execute", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("reqless.command", "echo"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("reqless.args", 1))
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NotEmpty(t, spans[1].Events())
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), config.Config{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.Config{RedisAddr: mr.Addr()})
	assert.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reqless.lua")
	require.NoError(t, os.WriteFile(path, []byte(testScript), 0o600))

	src, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, testScript, src)

	_, err = LoadScript("")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = LoadScript(filepath.Join(t.TempDir(), "absent.lua"))
	assert.Error(t, err)
}
