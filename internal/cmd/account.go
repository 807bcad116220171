package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) changePasswordCommand() *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if current == "" || next == "" {
				return errors.New("--current and --new are required")
			}
			msg, err := a.manager.ChangePassword(cmd.Context(), current, next)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}

func (a *app) verifyEmailCommand() *cobra.Command {
	var verificationToken string

	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Confirm an email address with the token from the verification mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verificationToken == "" {
				return errors.New("--token is required")
			}
			msg, err := a.manager.VerifyEmail(cmd.Context(), verificationToken)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&verificationToken, "token", "", "verification token")
	return cmd
}

func (a *app) resendVerificationCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Ask for a new verification email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			msg, err := a.manager.ResendVerification(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
