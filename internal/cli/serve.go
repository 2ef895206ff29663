package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Start the HTTP API serving experiments, compositions, the catalog and
Prometheus metrics.

Examples:
  kairos serve              # Start on KAIROS_PORT (default 8080)
  kairos serve --port 3000  # Start on port 3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides KAIROS_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(cmd, func(_ context.Context, app *AppContext) error {
		port := app.Config.Port
		if servePort > 0 {
			port = servePort
		}

		server := web.NewServer(port, app.Config.ShutdownTimeout, web.Deps{
			Experiments:  app.Experiments,
			Compositions: app.Compositions,
			Directory:    app.Directory,
			Metrics:      app.Metrics,
			Log:          app.Log,
		})
		return server.Start(ctx)
	})
}
