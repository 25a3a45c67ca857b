package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newRefreshCmd creates the 'refresh' subcommand: re-fetch a stored id range,
// retrying transient failures until every id resolves.
func newRefreshCmd() *cobra.Command {
	var start, stop int64

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetches an id range, blocking on transient failures",
		Long: `Replays every id in [start, stop) through the fetch pipeline,
overwriting whatever is stored. Transient failures are retried
indefinitely with a fixed backoff, so a finished refresh means the
whole range was resolved. Omitting the bounds refreshes everything
currently on file. Progress lands in the refresh log in batches and
survives cancellation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			refresher, err := a.Refresher()
			if err != nil {
				return err
			}

			report, err := refresher.Run(cmd.Context(), start, stop)
			logReport(a.Logger, "refresh", report)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("refresh: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&start, "start", 0, "first id to refresh (0 = lowest stored id)")
	cmd.Flags().Int64Var(&stop, "stop", 0, "refresh up to but excluding this id (0 = derive from store)")
	return cmd
}
