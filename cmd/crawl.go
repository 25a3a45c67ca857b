package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// newCrawlCmd creates the 'crawl' subcommand: advance the mirror forward
// from the last stored id until the source's frontier is reached.
func newCrawlCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls new disclosures forward from the last stored id",
		Long: `Fetches disclosures in strictly increasing id order, starting one past
the highest stored id. The crawl ends when the source reports an unknown
id (the publishing frontier), when the limit is exhausted, or on the
first transient error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			seq, err := a.Sequencer()
			if err != nil {
				return err
			}

			report, err := seq.Run(cmd.Context(), limit)
			logReport(a.Logger, "crawl", report)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("crawl: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum number of ids to fetch (0 = unbounded)")
	return cmd
}

func logReport(logger *zap.Logger, job string, report mirror.Report) {
	logger.Info("job finished",
		zap.String("job", job),
		zap.String("reason", string(report.Reason)),
		zap.Int64("processed", report.Processed),
		zap.Int64("succeeded", report.Succeeded),
		zap.Int64("skipped", report.Skipped),
		zap.Int64("failed", report.Failed),
		zap.Int64("retries", report.Retries),
		zap.Int64("last_id", report.LastID),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
}
