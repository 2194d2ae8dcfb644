package main

import (
	"github.com/spf13/cobra"
)

func newFlushTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-tokens",
		Short: "Delete expired entries from the refresh token blacklist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.identity.FlushExpiredTokens(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired tokens\n", n)
			return nil
		},
	}
}
