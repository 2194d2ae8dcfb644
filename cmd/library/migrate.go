package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// newApp applies the schema
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			a.log.WithField("driver", a.cfg.DBDriver).Info("Schema is up to date")
			return nil
		},
	}
}
