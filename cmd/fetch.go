package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// newFetchCmd creates the 'fetch' subcommand: fetch and store exactly one id.
func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <id>",
		Short: "Fetches a single disclosure by id and stores it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("id must be a positive integer, got %q", args[0])
			}
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			fetcher, err := a.Fetcher()
			if err != nil {
				return err
			}

			outcome, err := fetcher.Fetch(cmd.Context(), id)
			switch {
			case err != nil:
				return fmt.Errorf("fetch id %d: %w", id, err)
			case outcome == mirror.OutcomeNotFound:
				return errors.New("the source does not know this id")
			default:
				a.Logger.Info("record stored", zap.Int64("id", id))
				return nil
			}
		},
	}
}
