package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ainsophic/hubguard/internal/preflight"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight [flags] [-- <command> [args...]]",
	Short: "Validate the container environment and exec the hub",
	Long: `Preflight gates startup of the MCP Hub on a sequence of fail-fast
checks: the configuration artifact must exist and parse as JSON, the
writable state directories are prepared, and the runtime binary must be
on PATH. On success the hubguard process image is replaced by the hub
process, so the hub inherits PID 1 and receives termination signals
directly.

Any check failure aborts immediately with exit code 1. There are no
retries at this layer: a misconfigured container must fail loudly, not
limp into a broken running state.

Example:
  hubguard preflight
  hubguard preflight -- python3 -m mcp_hub.main --host 0.0.0.0 --port 8080`,
	RunE: runPreflight,
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

func runPreflight(cmd *cobra.Command, args []string) error {
	sup := preflight.New(guard, logger)

	// Run returns only on failure; success replaces the process image.
	if err := sup.Run(args); err != nil {
		logger.Error("Preflight aborted: " + err.Error())
		os.Exit(1)
	}
	return nil
}
