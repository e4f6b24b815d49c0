package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xealabs/xea-oracle/internal/ingest"
	"github.com/xealabs/xea-oracle/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the oracle API server",
	Long: `Serve starts the HTTP boundary of the oracle:

  POST /ingest                 canonicalize a proposal and extract claims
  POST /validate               start a validation job (returns job id)
  GET  /status/{job_id}        progress counters and partial results
  POST /aggregate              evidence bundle for a completed job
  GET  /jobs/{job_id}/events   live job updates (server-sent events)

Example:
  xea-oracle serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go svc.hub.Run(ctx)

	srv := server.New(cfg.Server, svc.store, svc.hub, svc.orchestrator, svc.engine, ingest.NewFetcher(cfg.HTTP))
	return srv.ListenAndServe(ctx)
}
