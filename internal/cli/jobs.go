package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tdg5/reqless-go/internal/codec"
	"github.com/tdg5/reqless-go/internal/job"
)

func NewJobsRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs",
	}
}

func NewJobsTrackedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tracked",
		Short: "Print tracked jobs and expired tracked jids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReader(cmd, func(ctx context.Context, r Reader) error {
				res, err := r.TrackedJobs(ctx)
				if err != nil {
					return err
				}
				b, err := codec.EncodeTrackedJobsResult(res)
				if err != nil {
					return err
				}
				return opts.write(cmd.OutOrStdout(), b)
			})
		},
	}
}

func NewJobsTaggedCmd(opts *rootOptions) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "tagged <tag>",
		Short: "Print a page of jids carrying a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReader(cmd, func(ctx context.Context, r Reader) error {
				res, err := r.TaggedJobs(ctx, args[0], offset, limit)
				if err != nil {
					return err
				}
				return writeJids(cmd, opts, res)
			})
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first jid")
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum number of jids")
	return cmd
}

func NewJobsFailedCmd(opts *rootOptions) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "failed <group>",
		Short: "Print a page of jids that failed with a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReader(cmd, func(ctx context.Context, r Reader) error {
				res, err := r.FailedJobsByGroup(ctx, args[0], offset, limit)
				if err != nil {
					return err
				}
				return writeJids(cmd, opts, res)
			})
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first jid")
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum number of jids")
	return cmd
}

func writeJids(cmd *cobra.Command, opts *rootOptions, res *job.JidsResult) error {
	b, err := codec.EncodeJidsResult(res)
	if err != nil {
		return err
	}
	return opts.write(cmd.OutOrStdout(), b)
}
