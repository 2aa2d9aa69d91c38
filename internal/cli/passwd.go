package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/config"
)

func newPasswdCmd(a *app) *cobra.Command {
	var newPassword string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the session password",
		Long: `Change the session password. The current password is required. Without
--new a random password is generated and printed once. The token signing
key is rotated as well, so API clients have to log in again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.loadWorkspace(cmd)
			if err != nil {
				return err
			}
			if w.settings.Auth.PasswordHash == "" {
				return errNotInitialized
			}
			current, err := a.password()
			if err != nil {
				return err
			}
			if err := auth.CheckPassword(w.settings.Auth.PasswordHash, current); err != nil {
				return err
			}

			generated := newPassword == ""
			if generated {
				if newPassword, err = auth.GeneratePassword(16); err != nil {
					return sysError(err)
				}
			}
			if err := setCredentials(w.settings, newPassword); err != nil {
				return err
			}
			if err := w.save(); err != nil {
				return err
			}
			w.logger.Warn("password changed")
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "new password: %s\n", newPassword)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&newPassword, "new", "", "new password (default: generate one)")
	return cmd
}

// setCredentials stores the hash of password and a fresh signing key.
func setCredentials(s *config.Settings, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		return sysError(err)
	}
	s.Auth.PasswordHash = hash
	s.Auth.JWTSecret = secret
	return nil
}
