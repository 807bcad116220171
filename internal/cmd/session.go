package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in to the HR API. The token pair and the signed-in user are stored so
later commands reuse the session.

Examples:
  hrsession login --email jane@example.com --password '...'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				return errors.New("--password is required")
			}

			if err := a.manager.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			user := a.manager.Session().User
			fmt.Fprintf(a.out, "Signed in as %s <%s>\n", user.FullName(), user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	var output string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the signed-in user as restored from storage. With --refresh the
identity is fetched again from GET /auth/me first.

Examples:
  hrsession whoami
  hrsession whoami --refresh --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh {
				if err := a.manager.FetchUser(cmd.Context()); err != nil {
					return err
				}
			}
			return render(a.out, output, newSessionView(a.manager.Snapshot()))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, yaml or json")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch the identity from the API")
	return cmd
}

func (a *app) capabilitiesCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List what the signed-in user may do",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(a.out, output, newCapabilitiesView(a.manager.Capabilities()))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, yaml or json")
	return cmd
}
