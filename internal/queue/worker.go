package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tdg5/reqless-go/internal/job"
	"github.com/tdg5/reqless-go/internal/metrics"
)

// Handler processes one job. A nil return completes the job; an error fails it.
type Handler func(ctx context.Context, j *job.Job) error

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// WithPollInterval sets the longest wait between pops of an idle queue.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.pollInterval = d }
}

// Worker pops jobs from one queue and runs the handler registered for each
// job's class.
type Worker struct {
	client       *Client
	queue        string
	name         string
	workers      int
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewWorker returns a worker named name running workers goroutines against
// queueName.
func NewWorker(c *Client, queueName, name string, workers int, opts ...WorkerOption) *Worker {
	if workers <= 0 {
		workers = 1
	}
	w := &Worker{
		client:       c,
		queue:        queueName,
		name:         name,
		workers:      workers,
		pollInterval: 5 * time.Second,
		logger:       slog.Default(),
		handlers:     make(map[string]Handler),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Handle registers h for jobs whose class is klass.
func (w *Worker) Handle(klass string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[klass] = h
}

func (w *Worker) handler(klass string) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[klass]
	return h, ok
}

// Run processes jobs until ctx is cancelled. Jobs already popped are
// finished before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	if err := validateNonEmpty("queue", w.queue); err != nil {
		return err
	}
	if err := validateNonEmpty("worker", w.name); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		id := i
		g.Go(func() error {
			w.run(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	log := w.logger.With(slog.String("component", "worker"), slog.Int("worker_id", id))
	log.Info("started", slog.String("queue", w.queue))
	defer log.Info("stopped")

	idle := 0
	for {
		if ctx.Err() != nil {
			return
		}

		jobs, err := w.client.Pop(ctx, w.queue, w.name, 1)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("pop failed", slog.String("error", err.Error()))
			jobs = nil
		}
		if len(jobs) == 0 {
			idle++
			if !sleep(ctx, PollDelay(w.pollInterval, idle)) {
				return
			}
			continue
		}

		idle = 0
		for _, j := range jobs {
			// Finish the job even if shutdown starts while it runs.
			w.process(context.WithoutCancel(ctx), log, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, log *slog.Logger, j *job.Job) {
	log = log.With(slog.String("jid", j.Jid), slog.String("klass", j.ClassName))
	start := time.Now()

	group := j.ClassName + "-error"
	h, ok := w.handler(j.ClassName)
	var err error
	if !ok {
		group = "no-handler"
		err = fmt.Errorf("%w: %s", ErrNoHandler, j.ClassName)
	} else {
		err = runHandler(ctx, h, j)
	}

	if err != nil {
		metrics.JobsProcessedTotal.WithLabelValues(j.ClassName, "failed").Inc()
		log.Error("job failed", slog.Duration("elapsed", time.Since(start)), slog.String("error", err.Error()))
		if ferr := w.client.Fail(ctx, j.Jid, w.name, group, err.Error(), jobData(j)); ferr != nil {
			log.Error("fail command failed", slog.String("error", ferr.Error()))
		}
		return
	}

	metrics.JobsProcessedTotal.WithLabelValues(j.ClassName, "complete").Inc()
	log.Info("job completed", slog.Duration("elapsed", time.Since(start)))
	if cerr := w.client.Complete(ctx, j.Jid, w.name, w.queue, jobData(j)); cerr != nil {
		log.Error("complete command failed", slog.String("error", cerr.Error()))
	}
}

// runHandler turns a handler panic into a job failure.
func runHandler(ctx context.Context, h Handler, j *job.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, j)
}

// sleep waits for d, returning false if ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func jobData(j *job.Job) string {
	if j.Data == "" {
		return "{}"
	}
	return j.Data
}
