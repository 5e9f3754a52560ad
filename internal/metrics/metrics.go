// Package metrics exposes the Prometheus collectors shared by the reqless
// client, worker and HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts executor commands by outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqless_commands_total",
			Help: "Total number of reqless script commands executed",
		},
		[]string{"command", "status"}, // status is "ok" or "error"
	)

	// CommandDurationSeconds tracks the round trip of executor commands.
	CommandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reqless_command_duration_seconds",
			Help:    "Histogram of reqless script command durations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// DecodeFailuresTotal counts replies that could not be decoded.
	DecodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqless_decode_failures_total",
			Help: "Total number of executor replies rejected by the decoder",
		},
		[]string{"command", "kind"},
	)

	// JobsProcessedTotal counts jobs handled by workers.
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqless_worker_jobs_total",
			Help: "Total number of jobs processed by reqless workers",
		},
		[]string{"klass", "status"}, // status is "complete" or "failed"
	)
)
