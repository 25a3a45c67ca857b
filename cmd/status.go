package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// newStatusCmd creates the 'status' subcommand: print the mirror's id range,
// frontier and gap count.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Prints the mirrored id range and frontier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := a.Store.Stats(cmd.Context())
			if errors.Is(err, mirror.ErrEmpty) {
				cmd.Printf("mirror is empty; the next crawl starts at id %d\n", a.Config.Source.InitialID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}

			front, err := a.Store.MaxID(cmd.Context())
			if err != nil {
				return fmt.Errorf("load frontier: %w", err)
			}

			span := stats.MaxID - stats.MinID + 1
			cmd.Printf("range:    %d .. %d\n", stats.MinID, stats.MaxID)
			cmd.Printf("stored:   %d\n", stats.Count)
			cmd.Printf("missing:  %d\n", span-stats.Count)
			cmd.Printf("frontier: %d (%s)\n", front.ID, front.PublishDate)
			return nil
		},
	}
}
