package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alanmeadows/prwright/internal/server"
	"github.com/spf13/cobra"
)

var servePortFlag int

func init() {
	serveCmd.Flags().IntVar(&servePortFlag, "port", 0, "Server port (default from config or 4199)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the change request API",
	Long: `Run the HTTP API in the foreground until interrupted.

POST /requests accepts a change request and runs it in the background,
GET /history lists recent requests and GET /status reports liveness.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePortFlag
		if port == 0 {
			port = appConfig.Server.Port
		}
		if port == 0 {
			port = 4199
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := newHistoryStore(appConfig)
		runner, err := newRunner(ctx, appConfig, store)
		if err != nil {
			return err
		}
		return server.New(runner, store).Run(ctx, port)
	},
}
