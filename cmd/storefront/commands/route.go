package commands

import (
	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/navigation"
	"github.com/milkrun/storefront/internal/session"
)

func routeCmd() *cobra.Command {
	var (
		role    string
		loading bool
		remote  bool
		check   bool
	)
	cmd := &cobra.Command{
		Use:   "route [path]",
		Short: "Show where a session on path would be sent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				if err := navigation.CheckRedirectTargets(); err != nil {
					return err
				}
				cmd.Println("redirect targets are stable")
				return nil
			}
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			if remote {
				d, err := client.Resolve(cmd.Context(), token, path)
				if err != nil {
					return err
				}
				return printJSON(cmd, d)
			}

			sess := session.Anonymous()
			if role != "" {
				sess = session.NewSession(role, "", "")
			}
			route := navigation.ParseRoute(path)
			return printJSON(cmd, struct {
				Area string `json:"area"`
				navigation.Decision
			}{
				Area:     navigation.Classify(route).String(),
				Decision: navigation.Decide(session.State{Loading: loading, Session: sess}, route),
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role of a signed-in session (empty for anonymous)")
	cmd.Flags().BoolVar(&loading, "loading", false, "pretend auth state is still loading")
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the API using --token instead of deciding locally")
	cmd.Flags().BoolVar(&check, "check", false, "verify every role's redirect target settles")
	return cmd
}
