package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/location"
)

func searchCmd() *cobra.Command {
	var lat, lon float64
	var session string
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Suggest places matching a free-text address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bias *location.Coordinates
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				bias = &location.Coordinates{Latitude: lat, Longitude: lon}
			}
			suggestions, err := newResolver(nil).SearchPlaces(cmd.Context(), strings.Join(args, " "), bias, session)
			if err != nil {
				return err
			}
			if suggestions == nil {
				suggestions = []location.PlaceSuggestion{}
			}
			return printJSON(cmd, suggestions)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "bias results toward this latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "bias results toward this longitude")
	cmd.Flags().StringVar(&session, "session", "", "provider session token shared with a later place lookup")
	return cmd
}
