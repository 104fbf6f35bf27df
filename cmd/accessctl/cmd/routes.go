package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/edushare/internal/access"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List client pages and their role requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tACCESS")
		for _, r := range access.DefaultRouteTable().Routes() {
			fmt.Fprintf(w, "%s\t%s\n", r.Pattern, describe(r))
		}
		return w.Flush()
	},
}

func describe(r access.Route) string {
	switch {
	case r.Public:
		return "public"
	case r.Requirement == nil:
		return "any authenticated"
	}
	roles := make([]string, 0, len(r.Requirement.Allowed()))
	for _, role := range r.Requirement.Allowed() {
		roles = append(roles, string(role))
	}
	if len(roles) == 0 {
		return "admin"
	}
	return strings.Join(roles, ", ")
}
