package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// newBackfillCmd creates the 'backfill' subcommand: find ids missing inside
// the stored range and fetch each one.
func newBackfillCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetches ids missing inside the stored range",
		Long: `Scans the stored id range for holes left by earlier interrupted runs
and fetches each missing id. Ids the source itself does not know stay
missing; they are reported but not treated as failures.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			missing, err := a.GapFinder().Missing(cmd.Context())
			if err != nil {
				return fmt.Errorf("find gaps: %w", err)
			}
			a.Logger.Info("gap scan complete", zap.Int("missing", len(missing)))
			if dryRun || len(missing) == 0 {
				return nil
			}

			fetcher, err := a.Fetcher()
			if err != nil {
				return err
			}

			var stored, absent, failed int
			for _, id := range missing {
				if cmd.Context().Err() != nil {
					break
				}
				outcome, err := fetcher.Fetch(cmd.Context(), id)
				switch {
				case errors.Is(err, context.Canceled):
					a.Logger.Warn("backfill canceled", zap.Int64("id", id))
				case err != nil:
					failed++
					a.Logger.Warn("backfill fetch failed", zap.Int64("id", id), zap.Error(err))
				case outcome == mirror.OutcomeNotFound:
					absent++
				default:
					stored++
				}
			}
			a.Logger.Info("backfill finished",
				zap.Int("stored", stored),
				zap.Int("absent_at_source", absent),
				zap.Int("failed", failed),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report missing ids, do not fetch")
	return cmd
}
