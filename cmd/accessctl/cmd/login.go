package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/domain"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the credential in the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.client.Login(ctx, loginEmail, loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if res.Pending {
			fmt.Fprintln(cmd.OutOrStdout(), "Account created but awaiting admin approval")
			return nil
		}

		claims, err := auth.NewClaimsDecoder().VerifyCredential(ctx, res.Token)
		if err != nil {
			return fmt.Errorf("server issued an unusable credential: %w", err)
		}
		subject := res.Subject
		if role, ok := domain.ParseRole(claims.RawRole); ok {
			subject.Role = role
		}

		if err := e.session.Login(ctx, res.Token, subject, res.ExpiresAt); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", subject.ID, subject.Role)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
