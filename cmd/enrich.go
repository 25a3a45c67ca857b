package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newEnrichCmd creates the 'enrich' subcommand: attach generated summaries to
// records that do not have one yet.
func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Summarizes stored disclosures that lack a summary",
		Long: `Selects up to enrich.batch_size records whose summary is still null,
newest first, and asks the summarization service for each. Failed or
timed-out calls are skipped and stay eligible for the next run; only
storage failures abort the batch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			enricher, closeSummarizer, err := a.Enricher(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeSummarizer(); cerr != nil {
					a.Logger.Warn("close summarizer", zap.Error(cerr))
				}
			}()

			report, err := enricher.Run(cmd.Context())
			logReport(a.Logger, "enrich", report)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("enrich: %w", err)
			}
			return nil
		},
	}
}
