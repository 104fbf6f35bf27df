package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/edushare/internal/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Refresh the session against the server and show the subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.session.Refresh(ctx, e.client)
		switch {
		case errors.Is(err, session.ErrNotLoggedIn):
			return fmt.Errorf("not logged in")
		case errors.Is(err, session.ErrCredentialRejected):
			return fmt.Errorf("session expired, log in again")
		case err != nil:
			return fmt.Errorf("refresh failed: %w", err)
		}
		if res.Stale {
			return fmt.Errorf("session changed during refresh, try again")
		}

		snap := e.session.Snapshot()
		if snap.Subject == nil {
			return fmt.Errorf("not logged in")
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tROLE\tEMAIL VERIFIED\tADMIN VERIFIED\tEXPIRES")
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			snap.Subject.ID, snap.Subject.Role,
			snap.Subject.EmailVerified, snap.Subject.AdminVerified,
			snap.ExpiresAt.Local().Format("2006-01-02 15:04"))
		w.Flush()

		if res.RoleMismatch {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: the server reports role %q; log out and log in again\n", res.Subject.Role)
		}
		return nil
	},
}
