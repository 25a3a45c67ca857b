// Package cmd defines and implements the CLI commands for the kapmirror
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alperaydin/kapmirror/internal/app"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is the application factory. It's a variable so tests can replace it
// with a stub factory.
var newApp = func(ctx context.Context, cfgPath string) (*app.App, error) {
	return app.New(ctx, cfgPath)
}

// newRootCmd creates and configures the root command. The app container is
// built in PersistentPreRunE, after flags are parsed but before any
// subcommand runs, and torn down in PersistentPostRun.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kapmirror",
		Short: "Mirrors KAP public disclosures into Postgres.",
		Long: `kapmirror maintains a local mirror of the public disclosure platform.
It crawls new disclosures forward from the last stored id, refreshes
stored ranges, backfills gaps and attaches generated summaries.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment-only)")

	cmd.AddCommand(
		newCrawlCmd(),
		newFetchCmd(),
		newBackfillCmd(),
		newRefreshCmd(),
		newEnrichCmd(),
		newCompaniesCmd(),
		newStatusCmd(),
		newSampleCmd(),
		newInitDBCmd(),
	)

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute is the main entry point. SIGINT/SIGTERM cancel the command context
// so long-running jobs stop at the next id boundary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
