package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSampleCmd creates the 'sample' subcommand: print randomly chosen stored
// records for a quick spot check.
func newSampleCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Prints randomly chosen stored records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("count must be > 0, got %d", count)
			}
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			recs, err := a.Store.RandomRecords(cmd.Context(), count)
			if err != nil {
				return fmt.Errorf("sample records: %w", err)
			}
			for _, rec := range recs {
				summary := "-"
				if rec.ExplanationSummary != nil {
					summary = *rec.ExplanationSummary
				}
				cmd.Printf("%d\t%s\t%s\t%s\n\t%s\n\tsummary: %s\n",
					rec.ID, rec.Code, rec.PublishDate, rec.DisclosureType,
					rec.Summary, summary,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "number of records to print")
	return cmd
}
