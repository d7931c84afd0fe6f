package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/pkg/logging"
)

var (
	settingsFile string
	logLevel     string
	outputFormat string

	guard  *config.Guard
	logger *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hubguard",
	Short: "Container lifecycle guard for the MCP Hub",
	Long: `hubguard validates the container environment before the MCP Hub starts,
hands off execution to the hub process without breaking signal delivery,
and probes the running hub to report a health verdict to the container
runtime.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "/app/config/guard.yaml", "optional guard settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity: DEBUG, INFO, WARN or ERROR (default from MCP_HUB_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "text", "output format: text, table or json")
}

// initConfig captures the environment once into the guard configuration
func initConfig() {
	viper.AutomaticEnv()

	// Bind the documented environment variables explicitly
	for _, key := range []string{
		config.EnvConfigPath,
		config.EnvPluginsDir,
		config.EnvLogLevel,
		config.EnvDataDir,
		config.EnvLogDir,
		config.EnvRuntime,
		config.EnvRunAsUser,
		config.EnvProbeURL,
		config.EnvProbeTimeout,
		config.EnvProbeRetries,
		config.EnvProbeRetryDelay,
		config.EnvProbeDebug,
	} {
		viper.BindEnv(key, key)
	}

	g, err := config.FromEnv(viper.GetString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(1)
	}

	if err := g.ApplyFile(settingsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
		os.Exit(1)
	}

	if logLevel != "" {
		g.LogLevel = logLevel
	}

	if err := g.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	guard = g

	level := logging.ParseLevel(g.LogLevel)
	if g.Probe.Debug && level > logging.DEBUG {
		level = logging.DEBUG
	}
	logger = logging.NewLogger(level)
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// IsTableOutput returns true if table output is requested
func IsTableOutput() bool {
	return outputFormat == "table"
}
