package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tdg5/reqless-go/internal/codec"
)

func NewJobRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job",
		Short: "Inspect a single job",
	}
}

func NewJobGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <jid>",
		Short: "Print a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withReader(cmd, func(ctx context.Context, r Reader) error {
				j, err := r.GetJob(ctx, args[0])
				if err != nil {
					return err
				}
				b, err := codec.EncodeJob(j)
				if err != nil {
					return err
				}
				return opts.write(cmd.OutOrStdout(), b)
			})
		},
	}
}
