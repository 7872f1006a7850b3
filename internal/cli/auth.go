package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/client"
)

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = getEnvOrDefault("ROSTER_PASSWORD", "")
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			result, err := apiClient.Login(cmd.Context(), password)
			if err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Admin password (env: ROSTER_PASSWORD)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			// An already expired session still counts as logged out
			if err := apiClient.Logout(cmd.Context()); err != nil && !errors.Is(err, client.ErrUnauthorized) {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Session(cmd.Context())
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
