package commands

import (
	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/location"
)

// deviceFlags stand in for a phone's GPS.
type deviceFlags struct {
	lat, lon, accuracy float64
	deny               bool
}

func (d *deviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&d.lat, "lat", 18.5204, "simulated GPS latitude")
	cmd.Flags().Float64Var(&d.lon, "lon", 73.8567, "simulated GPS longitude")
	cmd.Flags().Float64Var(&d.accuracy, "accuracy", 10, "simulated GPS accuracy in meters")
	cmd.Flags().BoolVar(&d.deny, "deny", false, "simulate a denied location permission")
}

func (d *deviceFlags) device() location.StaticDevice {
	return location.StaticDevice{
		Position: location.Position{
			Coordinates: location.Coordinates{Latitude: d.lat, Longitude: d.lon},
			Accuracy:    d.accuracy,
		},
		Denied: d.deny,
	}
}
