package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultTopN = 5

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		caller callerFlags
		file   string
		topN   int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Route a batch of messages and print aggregate routing statistics",
		Long: `Route every non-empty line of --file (or stdin) and print the resulting
routing statistics: totals, success and fallback counts, per-intent and
per-target usage, mean confidence and latency percentiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return errors.Wrapf(err, "failed to open %s", file)
				}
				defer f.Close()
				in = f
			}
			messages, err := collectMessages(in, nil, true)
			if err != nil {
				return err
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			for _, msg := range messages {
				a.service.Route(ctx, msg, caller.callerContext())
			}
			return writeJSON(cmd.OutOrStdout(), a.service.Stats(topN))
		},
	}
	caller.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one message per line (default stdin)")
	cmd.Flags().IntVar(&topN, "top", defaultTopN, "number of top intents and targets to show")
	return cmd
}
