package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Arbor/internal/api"
	"github.com/Project-Sylos/Arbor/sdk"
)

// NewServeCmd runs the HTTP API
func NewServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over the configured store. The store, host and port
come from the config file and can be overridden with ARBOR_STORE_DRIVER,
ARBOR_STORE_DB_PATH, ARBOR_API_HOST and ARBOR_API_PORT or the flags below.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("host") {
				cfg.API.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.API.Port = port
			}

			arbor, err := sdk.NewWithConfig(&cfg, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(arbor, &cfg.API)
			return server.Run(ctx, 30*time.Second)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}
