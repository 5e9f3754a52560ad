package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdg5/reqless-go/internal/codec"
)

type decodeFunc func([]byte) ([]byte, error)

var decoders = map[string]decodeFunc{
	"job": func(b []byte) ([]byte, error) {
		j, err := codec.DecodeJob(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeJob(j)
	},
	"jobs": func(b []byte) ([]byte, error) {
		jobs, err := codec.DecodeJobList(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeJobList(jobs)
	},
	"event": func(b []byte) ([]byte, error) {
		ev, err := codec.DecodeEvent(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeEvent(ev)
	},
	"failure": func(b []byte) ([]byte, error) {
		f, err := codec.DecodeJobFailure(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeJobFailure(f)
	},
	"jids": func(b []byte) ([]byte, error) {
		res, err := codec.DecodeJidsResult(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeJidsResult(res)
	},
	"tracked": func(b []byte) ([]byte, error) {
		res, err := codec.DecodeTrackedJobsResult(b)
		if err != nil {
			return nil, err
		}
		return codec.EncodeTrackedJobsResult(res)
	},
}

func decoderKinds() []string {
	kinds := make([]string, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// NewDecodeCmd decodes a raw script reply without a Redis connection and
// prints it in canonical form.
func NewDecodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       fmt.Sprintf("decode <%s> [file]", strings.Join(decoderKinds(), "|")),
		Short:     "Decode a raw reply from a file or stdin",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: decoderKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			decode, ok := decoders[args[0]]
			if !ok {
				return fmt.Errorf("unknown reply kind %q, want one of %s", args[0], strings.Join(decoderKinds(), ", "))
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			out, err := decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", codec.KindOf(err), err)
			}
			return opts.write(cmd.OutOrStdout(), out)
		},
	}
}
