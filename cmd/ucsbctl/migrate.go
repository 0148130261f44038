package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			applied, err := repository.Migrate(cmd.Context(), repo.Pool(), migrations.FS)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			version, err := repository.MigrateDown(cmd.Context(), repo.Pool(), migrations.FS)
			if err != nil {
				return err
			}
			if version == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back", version)
			return nil
		},
	})
	return cmd
}
