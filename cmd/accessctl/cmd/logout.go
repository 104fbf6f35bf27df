package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored credential and clear the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if token := e.session.Snapshot().Token; token != "" {
			if err := e.client.Logout(ctx, token); err != nil {
				e.logger.Warn("server logout failed", zap.Error(err))
			}
		}
		if err := e.session.Logout(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
		return nil
	},
}
