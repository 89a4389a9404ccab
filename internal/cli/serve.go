package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/api"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
)

// NewServeCmd creates the serve command, which exposes the engine over HTTP.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the activity log API over HTTP",
		Long: `Starts an HTTP server for the activity log. Users are addressed by path:

  GET    /healthz
  GET    /api/v1/factors
  POST   /api/v1/estimate
  POST   /api/v1/users/:user/daily-logs
  GET    /api/v1/users/:user/daily-logs?from=&to=
  GET    /api/v1/users/:user/daily-logs/:date[?view=editable]
  DELETE /api/v1/users/:user/daily-logs/:date   (always 405)
  GET    /api/v1/users/:user/history?from=&to=
  GET    /api/v1/users/:user/recommendations?date=
  GET    /api/v1/users/:user/budget

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  footprint serve
  footprint serve --addr 0.0.0.0:9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.GetGlobalConfig()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := api.NewServer(api.Options{
				Engine: eng,
				Budget: cfg.Budget,
				Logger: logging.ComponentLogger(*logging.FromContext(ctx), "api"),
				Audit:  logging.AuditLoggerFromContext(ctx),
			})
			cmd.Printf("Serving on http://%s\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}
