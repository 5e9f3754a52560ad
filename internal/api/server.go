// Package api serves a small HTTP surface over the reqless client: job
// inspection, tracking and submission. Job payloads are written with the
// codec encoders so clients see the same JSON the server scripts produce.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tdg5/reqless-go/internal/codec"
	"github.com/tdg5/reqless-go/internal/job"
	"github.com/tdg5/reqless-go/internal/queue"
)

const defaultPageSize = 25

// Service is the part of *queue.Client the server needs.
type Service interface {
	GetJob(ctx context.Context, jid string) (*job.Job, error)
	GetJobs(ctx context.Context, jids ...string) ([]*job.Job, error)
	TrackedJobs(ctx context.Context) (*job.TrackedJobsResult, error)
	TaggedJobs(ctx context.Context, tag string, offset, limit int) (*job.JidsResult, error)
	FailedJobsByGroup(ctx context.Context, group string, offset, limit int) (*job.JidsResult, error)
	Put(ctx context.Context, queueName string, req queue.PutRequest) (string, error)
	Track(ctx context.Context, jid string) error
	Untrack(ctx context.Context, jid string) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAPIKey requires every request except /healthz and /metrics to carry
// key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

type Server struct {
	svc    Service
	apiKey string
	logger *slog.Logger
}

func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group("/", s.requireAPIKey())
	g.GET("/jobs/:jid", s.getJob)
	g.GET("/jobs", s.getJobs)
	g.PUT("/jobs/:jid/track", s.track)
	g.DELETE("/jobs/:jid/track", s.untrack)
	g.GET("/tracked", s.trackedJobs)
	g.GET("/tags/:tag", s.taggedJobs)
	g.GET("/failed/:group", s.failedJobs)
	g.POST("/queues/:queue/jobs", s.putJob)
	return r
}

// Start serves the router on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", slog.String("component", "api"), slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("component", "api"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) getJob(c *gin.Context) {
	j, err := s.svc.GetJob(c.Request.Context(), c.Param("jid"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.encoded(c, http.StatusOK, func() ([]byte, error) { return codec.EncodeJob(j) })
}

func (s *Server) getJobs(c *gin.Context) {
	jids := c.QueryArray("jid")
	if len(jids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one jid query parameter is required"})
		return
	}
	jobs, err := s.svc.GetJobs(c.Request.Context(), jids...)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.encoded(c, http.StatusOK, func() ([]byte, error) { return codec.EncodeJobList(jobs) })
}

func (s *Server) trackedJobs(c *gin.Context) {
	res, err := s.svc.TrackedJobs(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.encoded(c, http.StatusOK, func() ([]byte, error) { return codec.EncodeTrackedJobsResult(res) })
}

func (s *Server) taggedJobs(c *gin.Context) {
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	res, err := s.svc.TaggedJobs(c.Request.Context(), c.Param("tag"), offset, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.encoded(c, http.StatusOK, func() ([]byte, error) { return codec.EncodeJidsResult(res) })
}

func (s *Server) failedJobs(c *gin.Context) {
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	res, err := s.svc.FailedJobsByGroup(c.Request.Context(), c.Param("group"), offset, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.encoded(c, http.StatusOK, func() ([]byte, error) { return codec.EncodeJidsResult(res) })
}

type putRequest struct {
	Jid          string   `json:"jid"`
	Klass        string   `json:"klass" binding:"required"`
	Data         any      `json:"data"`
	DelaySeconds int      `json:"delay"`
	Priority     int      `json:"priority"`
	Retries      int      `json:"retries"`
	Tags         []string `json:"tags"`
	Depends      []string `json:"depends"`
	Throttles    []string `json:"throttles"`
}

func (s *Server) putJob(c *gin.Context) {
	var req putRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data := ""
	if req.Data != nil {
		b, err := json.Marshal(req.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data = string(b)
	}

	jid, err := s.svc.Put(c.Request.Context(), c.Param("queue"), queue.PutRequest{
		Jid:       req.Jid,
		ClassName: req.Klass,
		Data:      data,
		Delay:     time.Duration(req.DelaySeconds) * time.Second,
		Priority:  req.Priority,
		Retries:   req.Retries,
		Tags:      req.Tags,
		Depends:   req.Depends,
		Throttles: req.Throttles,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jid": jid, "queue": c.Param("queue")})
}

func (s *Server) track(c *gin.Context) {
	if err := s.svc.Track(c.Request.Context(), c.Param("jid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) untrack(c *gin.Context) {
	if err := s.svc.Untrack(c.Request.Context(), c.Param("jid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) encoded(c *gin.Context, status int, encode func() ([]byte, error)) {
	b, err := encode()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}

// fail maps client errors onto HTTP statuses. Replies the decoder rejected
// are the server's fault, hence 502.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, queue.ErrInvalidArgument):
		status = http.StatusBadRequest
	case codec.KindOf(err) != 0, errors.Is(err, queue.ErrUnexpectedReply):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("component", "api"),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func page(c *gin.Context) (offset, limit int, ok bool) {
	var err error
	if offset, err = strconv.Atoi(c.DefaultQuery("offset", "0")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return 0, 0, false
	}
	if limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize))); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return 0, 0, false
	}
	return offset, limit, true
}
