package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/auth"
)

var navigationID string

var visitCmd = &cobra.Command{
	Use:   "visit <path>",
	Short: "Run the route guard for a client page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		stderr := cmd.ErrOrStderr()
		notifier, err := access.NewNotifier(access.NoticeFunc(func(n access.Notice) {
			fmt.Fprintf(stderr, "%s: %s\n", n.Kind, n.Message)
		}), e.cfg.Access.NoticeCacheSize)
		if err != nil {
			return err
		}

		homes := access.HomeRoutesFromConfig(e.cfg.Access)
		reverifier := access.NewReverifier(e.client, notifier, e.cfg.Access.ReverifyTimeout(), e.logger)
		guard := access.NewGuard(access.GuardDeps{
			Decider:    access.NewDecider(auth.NewClaimsDecoder(), homes),
			Session:    e.session,
			Notifier:   notifier,
			Reverifier: reverifier,
			Logger:     e.logger,
		})

		verdict := guard.Navigate(ctx, navigationID, args[0])
		out := cmd.OutOrStdout()
		switch verdict.Outcome {
		case access.OutcomeAllow:
			fmt.Fprintf(out, "allow %s\n", args[0])
		case access.OutcomeDenyRedirect:
			fmt.Fprintf(out, "redirect %s (%s)\n", verdict.Target, verdict.Reason)
		default:
			fmt.Fprintf(out, "unauthenticated (%s), log in at %s\n", verdict.Reason, homes.AuthEntry)
		}

		reverifier.Wait()
		return nil
	},
}

func init() {
	visitCmd.Flags().StringVar(&navigationID, "navigation-id", "", "id of the navigation attempt (default: new id)")
}
