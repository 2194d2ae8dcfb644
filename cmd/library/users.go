package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shelfkeeper/m/domain"
)

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user with the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			profile, err := a.identity.CreateAdmin(cmd.Context(), username, email, password)
			if err != nil {
				return describe(err)
			}
			cmd.Printf("Admin %q created (id %d)\n", profile.Username, profile.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSetActiveCmd() *cobra.Command {
	var username string
	var active bool
	cmd := &cobra.Command{
		Use:   "set-active",
		Short: "Activate or deactivate a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.identity.SetActive(cmd.Context(), username, active); err != nil {
				return describe(err)
			}
			cmd.Printf("User %q active=%t\n", username, active)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().BoolVar(&active, "active", true, "whether the account may log in")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// readPassword prompts twice for a masked password.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal to prompt for a password: use --password")
	}
	cmd.Print("Password: ")
	first, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	cmd.Print("Password (again): ")
	second, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return strings.TrimSpace(string(first)), nil
}

// describe flattens field validation errors into a readable CLI message.
func describe(err error) error {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return err
	}
	var parts []string
	for field, msgs := range verr.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, " ")))
	}
	return errors.New(strings.Join(parts, "; "))
}
