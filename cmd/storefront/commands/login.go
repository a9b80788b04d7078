package commands

import (
	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/shell"
)

func loginCmd() *cobra.Command {
	var (
		email, password string
		start           string
		dev             deviceFlags
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in, follow the route guard and resolve the delivery location",
		RunE: func(cmd *cobra.Command, args []string) error {
			nav := shell.NewMemoryNavigator(start)
			app := shell.New(shell.Config{
				Navigator: nav,
				Resolver:  newResolver(dev.device()),
				Auth:      client,
				Logger:    logger,
			})
			defer app.Close()

			sess, err := app.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			app.Wait()

			snap := app.Profile().Snapshot()
			out := struct {
				Token     string                     `json:"token"`
				Role      string                     `json:"role"`
				Route     string                     `json:"route"`
				Redirects []string                   `json:"redirects"`
				Status    shell.Status               `json:"locationStatus"`
				Location  *location.ResolvedLocation `json:"location,omitempty"`
			}{
				Token:     sess.Token,
				Role:      sess.Role.String(),
				Route:     nav.Location(),
				Redirects: nav.Redirects(),
				Status:    snap.Status,
				Location:  snap.Location,
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&start, "from", "/Login", "route the app is on when signing in")
	dev.register(cmd)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
