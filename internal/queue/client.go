// Package queue is the reqless client: it sends commands to the reqless
// script through an Executor and decodes the replies with the codec package.
// It also provides a polling Worker built on the client.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tdg5/reqless-go/internal/codec"
	"github.com/tdg5/reqless-go/internal/job"
	"github.com/tdg5/reqless-go/internal/metrics"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithJidGenerator overrides how Put generates missing jids.
func WithJidGenerator(fn func() string) Option {
	return func(c *Client) { c.newJid = fn }
}

// Client issues reqless commands. It is safe for concurrent use when its
// Executor is.
type Client struct {
	exec   Executor
	logger *slog.Logger
	newJid func() string
}

// NewClient returns a client sending commands through exec.
func NewClient(exec Executor, opts ...Option) *Client {
	c := &Client{
		exec:   exec,
		logger: slog.Default(),
		newJid: NewJid,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewJid returns a random jid in the server's format: a UUID without dashes.
func NewJid() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetJob returns the job with the given jid.
func (c *Client) GetJob(ctx context.Context, jid string) (*job.Job, error) {
	if err := validateNonEmpty("jid", jid); err != nil {
		return nil, err
	}
	data, err := c.call(ctx, "job.get", jid)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jid)
	}
	return decodeReply(c, "job.get", data, codec.DecodeJob)
}

// GetJobs returns the jobs that exist among jids, in server order.
func (c *Client) GetJobs(ctx context.Context, jids ...string) ([]*job.Job, error) {
	if len(jids) == 0 {
		return []*job.Job{}, nil
	}
	args := make([]any, 0, len(jids))
	for _, jid := range jids {
		if err := validateNonEmpty("jid", jid); err != nil {
			return nil, err
		}
		args = append(args, jid)
	}
	data, err := c.call(ctx, "job.getMulti", args...)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []*job.Job{}, nil
	}
	return decodeReply(c, "job.getMulti", data, codec.DecodeJobList)
}

// TrackedJobs returns every tracked job plus the tracked jids that expired.
func (c *Client) TrackedJobs(ctx context.Context) (*job.TrackedJobsResult, error) {
	data, err := c.call(ctx, "jobs.tracked")
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: jobs.tracked returned nothing", ErrUnexpectedReply)
	}
	return decodeReply(c, "jobs.tracked", data, codec.DecodeTrackedJobsResult)
}

// TaggedJobs returns a page of jids carrying tag.
func (c *Client) TaggedJobs(ctx context.Context, tag string, offset, limit int) (*job.JidsResult, error) {
	if err := validateNonEmpty("tag", tag); err != nil {
		return nil, err
	}
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}
	data, err := c.call(ctx, "jobs.tagged", tag, offset, limit)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: jobs.tagged returned nothing", ErrUnexpectedReply)
	}
	return decodeReply(c, "jobs.tagged", data, codec.DecodeJidsResult)
}

// FailedJobsByGroup returns a page of jids that failed with group.
func (c *Client) FailedJobsByGroup(ctx context.Context, group string, offset, limit int) (*job.JidsResult, error) {
	if err := validateNonEmpty("group", group); err != nil {
		return nil, err
	}
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}
	data, err := c.call(ctx, "jobs.failedByGroup", group, offset, limit)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: jobs.failedByGroup returned nothing", ErrUnexpectedReply)
	}
	return decodeReply(c, "jobs.failedByGroup", data, codec.DecodeJidsResult)
}

// Put puts a job into queueName and returns its jid.
func (c *Client) Put(ctx context.Context, queueName string, req PutRequest) (string, error) {
	if err := validatePut(queueName, req); err != nil {
		return "", err
	}
	jid := req.Jid
	if jid == "" {
		jid = c.newJid()
	}
	data := req.Data
	if data == "" {
		data = "{}"
	}

	args := []any{
		req.WorkerName, queueName, jid, req.ClassName, data, int64(req.Delay.Seconds()),
		"priority", req.Priority,
		"tags", jsonList(req.Tags),
		"depends", jsonList(req.Depends),
		"throttles", jsonList(req.Throttles),
	}
	if req.Retries > 0 {
		args = append(args, "retries", req.Retries)
	}

	reply, err := c.call(ctx, "queue.put", args...)
	if err != nil {
		return "", err
	}
	if reply != nil {
		jid = string(reply)
	}
	c.logger.Debug("job put",
		slog.String("component", "client"),
		slog.String("jid", jid),
		slog.String("queue", queueName),
		slog.String("klass", req.ClassName),
	)
	return jid, nil
}

// Pop reserves up to count jobs from queueName for workerName.
func (c *Client) Pop(ctx context.Context, queueName, workerName string, count int) ([]*job.Job, error) {
	if err := validateNonEmpty("queue", queueName); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("worker", workerName); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidArgument, count)
	}
	data, err := c.call(ctx, "queue.pop", queueName, workerName, count)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []*job.Job{}, nil
	}
	return decodeReply(c, "queue.pop", data, codec.DecodeJobList)
}

// Complete marks a running job complete, replacing its data.
func (c *Client) Complete(ctx context.Context, jid, workerName, queueName, data string) error {
	if err := validateNonEmpty("jid", jid); err != nil {
		return err
	}
	if err := validateNonEmpty("worker", workerName); err != nil {
		return err
	}
	if err := validateNonEmpty("queue", queueName); err != nil {
		return err
	}
	if err := validateJSON("data", data); err != nil {
		return err
	}
	_, err := c.call(ctx, "job.complete", jid, workerName, queueName, data)
	return err
}

// Fail marks a running job failed under group.
func (c *Client) Fail(ctx context.Context, jid, workerName, group, message, data string) error {
	if err := validateNonEmpty("jid", jid); err != nil {
		return err
	}
	if err := validateNonEmpty("worker", workerName); err != nil {
		return err
	}
	if err := validateNonEmpty("group", group); err != nil {
		return err
	}
	if err := validateJSON("data", data); err != nil {
		return err
	}
	_, err := c.call(ctx, "job.fail", jid, workerName, group, message, data)
	return err
}

// Track starts tracking the job.
func (c *Client) Track(ctx context.Context, jid string) error {
	if err := validateNonEmpty("jid", jid); err != nil {
		return err
	}
	_, err := c.call(ctx, "job.track", jid)
	return err
}

// Untrack stops tracking the job.
func (c *Client) Untrack(ctx context.Context, jid string) error {
	if err := validateNonEmpty("jid", jid); err != nil {
		return err
	}
	_, err := c.call(ctx, "job.untrack", jid)
	return err
}

// call executes command and returns its reply as JSON bytes, or nil when the
// script returned nothing.
func (c *Client) call(ctx context.Context, command string, args ...any) ([]byte, error) {
	res, err := c.exec.Execute(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int64:
		return []byte(fmt.Sprint(v)), nil
	default:
		return nil, fmt.Errorf("%w: %s returned %T", ErrUnexpectedReply, command, res)
	}
}

func decodeReply[T any](c *Client, command string, data []byte, decode func([]byte) (T, error)) (T, error) {
	v, err := decode(data)
	if err != nil {
		metrics.DecodeFailuresTotal.WithLabelValues(command, codec.KindOf(err).String()).Inc()
		c.logger.Error("decode reply failed",
			slog.String("component", "client"),
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
		var zero T
		return zero, fmt.Errorf("reqless/queue: decode %s reply: %w", command, err)
	}
	return v, nil
}

func jsonList(vs []string) string {
	if len(vs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(vs) //nolint:errcheck // strings always marshal
	return string(b)
}
