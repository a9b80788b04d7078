package commands

import (
	"github.com/spf13/cobra"
)

func placeCmd() *cobra.Command {
	var (
		sync    bool
		session string
	)
	cmd := &cobra.Command{
		Use:   "place [placeId]",
		Short: "Resolve a suggestion to coordinates and an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sync {
				if err := requireToken(); err != nil {
					return err
				}
			}
			r := newResolver(nil)
			loc, err := r.ResolvePlaceDetails(cmd.Context(), args[0], session)
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
	cmd.Flags().BoolVar(&sync, "sync", false, "save the place as the current delivery location")
	cmd.Flags().StringVar(&session, "session", "", "session token used by the search this place came from")
	return cmd
}
