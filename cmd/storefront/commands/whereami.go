package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/backend"
)

func whereamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whereami",
		Short: "Show the saved delivery location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(); err != nil {
				return err
			}
			loc, err := client.CurrentLocation(cmd.Context(), token)
			if errors.Is(err, backend.ErrNotFound) {
				cmd.Println("no delivery location saved yet")
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, loc)
		},
	}
}
