// Package cli implements reqlessctl, a command line client for inspecting
// reqless jobs and for decoding raw script replies offline.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tdg5/reqless-go/internal/job"
)

// Reader is the part of *queue.Client the inspection commands need.
type Reader interface {
	GetJob(ctx context.Context, jid string) (*job.Job, error)
	TrackedJobs(ctx context.Context) (*job.TrackedJobsResult, error)
	TaggedJobs(ctx context.Context, tag string, offset, limit int) (*job.JidsResult, error)
	FailedJobsByGroup(ctx context.Context, group string, offset, limit int) (*job.JidsResult, error)
}

// Connect opens a Reader. The returned close func is called once the command
// finishes.
type Connect func(ctx context.Context) (Reader, func(), error)

type rootOptions struct {
	indent  bool
	connect Connect
}

func NewRootCmd(connect Connect) *cobra.Command {
	opts := &rootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:           "reqlessctl",
		Short:         "Inspect reqless jobs and decode script replies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.indent, "indent", false, "Indent JSON output")

	jobCmd := NewJobRootCmd()
	jobCmd.AddCommand(NewJobGetCmd(opts))

	jobsCmd := NewJobsRootCmd()
	jobsCmd.AddCommand(
		NewJobsTrackedCmd(opts),
		NewJobsTaggedCmd(opts),
		NewJobsFailedCmd(opts),
	)

	cmd.AddCommand(jobCmd, jobsCmd, NewDecodeCmd(opts))
	return cmd
}

// withReader connects, runs fn and releases the connection.
func (o *rootOptions) withReader(cmd *cobra.Command, fn func(context.Context, Reader) error) error {
	if o.connect == nil {
		return errors.New("no reqless connection configured")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, closeFn, err := o.connect(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, r)
}

// write prints canonical JSON, indented when --indent is set.
func (o *rootOptions) write(w io.Writer, b []byte) error {
	if o.indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, b, "", "  "); err != nil {
			return err
		}
		b = buf.Bytes()
	}
	_, err := fmt.Fprintf(w, "%s\n", b)
	return err
}
