package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// newCompaniesCmd creates the 'companies' command group for listed-company
// reference data.
func newCompaniesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manages listed-company reference data",
	}
	cmd.AddCommand(newCompaniesSyncCmd(), newCompaniesShowCmd())
	return cmd
}

func newCompaniesSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reads all listed companies from the platform and stores them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			syncer, err := a.CompanySyncer()
			if err != nil {
				return err
			}

			saved, skipped, err := syncer.Run(cmd.Context())
			a.Logger.Info("company sync finished",
				zap.Int("saved", saved),
				zap.Int("skipped", skipped),
			)
			if err != nil {
				return fmt.Errorf("sync companies: %w", err)
			}
			return nil
		},
	}
}

func newCompaniesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Prints one stored company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			ent, err := a.Store.GetEntity(cmd.Context(), args[0])
			if errors.Is(err, mirror.ErrNotFound) {
				return fmt.Errorf("company %q is not stored; run 'companies sync' first", args[0])
			}
			if err != nil {
				return fmt.Errorf("load company: %w", err)
			}

			cmd.Printf("%s\t%s\n", ent.Code, ent.Name)
			cmd.Printf("province: %s\n", ent.Province)
			cmd.Printf("sector:   %s\n", ent.Sector)
			cmd.Printf("tax no:   %s\treg no: %s\n", ent.TaxNo, ent.RegNo)
			cmd.Printf("email:    %s\tweb: %s\n", ent.Email, ent.Website)
			cmd.Printf("address:  %s\n", ent.Address)
			cmd.Printf("scope:    %s\n", ent.Scope)
			return nil
		},
	}
}
