package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/backend"
	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/logging"
)

var (
	apiURL   string
	token    string
	timeout  time.Duration
	logLevel string

	client *backend.Client
	logger *slog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Command line client for the MilkRun storefront API",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				apiURL = envOr("STOREFRONT_API", "http://127.0.0.1:8080")
			}
			if token == "" {
				token = os.Getenv("STOREFRONT_TOKEN")
			}
			logger = logging.NewWithWriter(os.Stderr, logLevel, "text")
			client = backend.New(apiURL, &http.Client{Timeout: timeout})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default $STOREFRONT_API or http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token (default $STOREFRONT_TOKEN)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", location.DefaultTimeout, "per-request timeout")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(routeCmd(), signupCmd(), loginCmd(), locateCmd(), searchCmd(), placeCmd(), whereamiCmd())
	return root.Execute()
}

// newResolver builds a resolver that geocodes through the API's place proxy
// and syncs to the caller's profile.
func newResolver(device location.Device) *location.Resolver {
	return location.NewResolver(device, client, client, logger, location.WithTimeout(timeout))
}

func requireToken() error {
	if token == "" {
		return fmt.Errorf("a token is required: pass --token or set STOREFRONT_TOKEN")
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
