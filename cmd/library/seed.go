package main

import (
	"errors"

	"github.com/spf13/cobra"

	"shelfkeeper/m/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load books from a CSV file into an empty catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if file == "" {
				file = a.cfg.SeedFile
			}
			if file == "" {
				return errors.New("no seed file given: use --file or SEED_FILE")
			}
			n, err := seed.LoadBooksFile(cmd.Context(), a.catalog, file, a.log)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d books\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file with title,author[,available] columns")
	return cmd
}
