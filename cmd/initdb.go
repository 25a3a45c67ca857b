package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInitDBCmd creates the 'initdb' subcommand: create the mirror tables when
// they do not exist yet.
func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Creates the mirror tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			a.Logger.Info("schema ready")
			return nil
		},
	}
}
