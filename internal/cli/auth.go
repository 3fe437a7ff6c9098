package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

func newLoginCommand(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("STUDYNOTES_PASSWORD")
			}

			c, err := app.client()
			if err != nil {
				return err
			}
			tokens, err := services.NewAuthService(c).Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
			if err != nil {
				return describe(err)
			}

			name := email
			if tokens.User != nil && tokens.User.FullName != "" {
				name = tokens.User.FullName
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or STUDYNOTES_PASSWORD)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			// The local token is dropped even if the backend call fails.
			if err := c.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: backend logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			user := c.Identity().User
			if refresh || user == nil {
				user, err = services.NewAuthService(c).Me(cmd.Context())
				if err != nil {
					return describe(err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName, user.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the backend")
	return cmd
}
