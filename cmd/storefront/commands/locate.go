package commands

import (
	"github.com/spf13/cobra"
)

func locateCmd() *cobra.Command {
	var (
		dev  deviceFlags
		sync bool
	)
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve the simulated GPS fix to an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sync {
				if err := requireToken(); err != nil {
					return err
				}
			}
			r := newResolver(dev.device())
			loc, err := r.ResolveWithFallback(cmd.Context())
			if err != nil {
				return err
			}
			if sync {
				if err := r.SyncToBackend(cmd.Context(), token, loc); err != nil {
					return err
				}
			}
			return printJSON(cmd, loc)
		},
	}
	dev.register(cmd)
	cmd.Flags().BoolVar(&sync, "sync", false, "save the result as the current delivery location")
	return cmd
}
