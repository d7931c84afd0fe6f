package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ainsophic/hubguard/internal/monitor"
	"github.com/ainsophic/hubguard/internal/probe"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Probe the hub continuously and export Prometheus metrics",
	Long: `Monitor runs the same probe as 'check' on a fixed interval and
republishes the verdict as Prometheus metrics on /metrics, alongside a
guarded-process liveness gauge. It is an optional sidecar: the container
HEALTHCHECK keeps using the one-shot 'check' command.

The monitor only observes. It never restarts or signals the hub.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober := probe.New(guard.Probe, logger)
	mon := monitor.New(guard.Monitor, prober, logger)

	return mon.Run(ctx)
}
