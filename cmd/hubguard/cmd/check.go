package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ainsophic/hubguard/internal/probe"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the hub health endpoint once",
	Long: `Check performs one bounded-effort probe against the hub's /health
endpoint and reports the verdict through the exit code: 0 when the hub
is healthy, 1 otherwise. Intended as the container HEALTHCHECK command.

Connection failures are retried up to the configured budget; a
malformed or explicitly unhealthy response is never retried. Set
HEALTHCHECK_DEBUG=1 for per-attempt diagnostics.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	prober := probe.New(guard.Probe, logger)
	outcome := prober.Probe(context.Background())

	if IsJSONOutput() {
		if err := printOutcomeJSON(outcome); err != nil {
			return err
		}
	} else if IsTableOutput() {
		printOutcomeTable(outcome)
	}

	// The final verdict line is always written, whatever the verbosity;
	// it is the one line operators see in the orchestrator's probe log.
	if outcome.Healthy {
		logger.Info("Healthcheck passed: " + outcome.Message)
		return nil
	}

	logger.Error(fmt.Sprintf("Healthcheck failed (%s): %s", outcome.Reason, outcome.Message))
	os.Exit(1)
	return nil
}

func printOutcomeJSON(outcome *probe.Outcome) error {
	report := map[string]interface{}{
		"healthy":  outcome.Healthy,
		"message":  outcome.Message,
		"attempts": outcome.Attempts,
		"duration": outcome.Duration.String(),
	}
	if outcome.Reason != "" {
		report["reason"] = string(outcome.Reason)
	}
	if outcome.Report != nil {
		report["components"] = outcome.Report.Components
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printOutcomeTable(outcome *probe.Outcome) {
	if outcome.Report == nil {
		fmt.Println("No health report received")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Component", "Status")

	for _, name := range sortedComponents(outcome.Report) {
		status := "down"
		if outcome.Report.Components[name] {
			status = "up"
		}
		table.Append(name, status)
	}
	table.Render()
}

func sortedComponents(r *probe.Report) []string {
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
