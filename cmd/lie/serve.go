package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"lieworks/lie/pkg/audit"
	"lieworks/lie/pkg/cli"
	"lieworks/lie/pkg/server"
	"lieworks/lie/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the engine HTTP server",
	Long: `Start the engine HTTP server with the specified configuration.

The server exposes the structured request contract over JSON:
  POST /v1/completion   guarded inference
  POST /v1/memory       store a fact or append to the summary
  GET  /v1/memory       read a fact or the summary
  GET  /v1/health       engine status
  GET  /metrics         Prometheus metrics

Examples:
  # Start with default config
  lie serve

  # Start with custom config
  lie serve --config /etc/lie/lie.yaml

  # Override listen address
  lie serve --listen 127.0.0.1:9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveFlags.listenAddress != "" {
		a.cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	// Scheduled audit retention only makes sense in the long-running
	// process.
	if a.recorder != nil && a.cfg.Audit.PruneSchedule != "" {
		pruner := audit.NewPruner(a.recorder, audit.RetentionConfig{
			RetentionDays: a.cfg.Audit.RetentionDays,
			MaxRecords:    a.cfg.Audit.MaxRecords,
			Schedule:      a.cfg.Audit.PruneSchedule,
		})
		sched := audit.NewScheduler(pruner)
		if err := sched.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer sched.Stop()
		}
	}

	var metricsHandler http.Handler
	if a.registry != nil {
		metricsHandler = metrics.Handler(a.registry)
	}

	srv := server.NewServer(a.cfg.Server, a.eng, metricsHandler)

	fmt.Printf("lie %s listening on %s\n", Version, a.cfg.Server.ListenAddress)
	return srv.Start(ctx)
}
