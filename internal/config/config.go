package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names consumed by hubguard. The ambient environment
// is read exactly once, in FromEnv; everything downstream works from the
// resulting Guard struct.
const (
	EnvConfigPath = "MCP_HUB_CONFIG"
	EnvPluginsDir = "MCP_HUB_PLUGINS_DIR"
	EnvLogLevel   = "MCP_HUB_LOG_LEVEL"
	EnvDataDir    = "MCP_HUB_DATA_DIR"
	EnvLogDir     = "MCP_HUB_LOG_DIR"
	EnvRuntime    = "MCP_HUB_RUNTIME"
	EnvRunAsUser  = "MCP_HUB_USER"

	EnvProbeURL        = "HEALTHCHECK_URL"
	EnvProbeTimeout    = "HEALTHCHECK_TIMEOUT"
	EnvProbeRetries    = "HEALTHCHECK_RETRIES"
	EnvProbeRetryDelay = "HEALTHCHECK_RETRY_DELAY"
	EnvProbeDebug      = "HEALTHCHECK_DEBUG"
)

// Guard is the complete runtime configuration for both guard components.
type Guard struct {
	// Hub configuration artifact validated during preflight
	ConfigPath string

	// Directories prepared before handoff
	DataDir    string
	LogDir     string
	PluginsDir string
	ScriptsDir string

	// Runtime that launches the guarded process
	Runtime   string
	RunAsUser string

	LogLevel string

	Probe   ProbeSettings
	Monitor MonitorSettings
}

// ProbeSettings describes one bounded-effort health probe.
type ProbeSettings struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Debug      bool
}

// MonitorSettings configures the long-running monitor sidecar mode.
type MonitorSettings struct {
	Interval    time.Duration
	ListenAddr  string
	ProcessName string // guarded process name for the liveness gauge
}

// Default returns the guard configuration matching the container image layout.
func Default() *Guard {
	return &Guard{
		ConfigPath: "/app/config/servers.json",
		DataDir:    "/app/data",
		LogDir:     "/app/logs",
		PluginsDir: "/app/plugins",
		ScriptsDir: "/app/scripts",
		Runtime:    "python3",
		RunAsUser:  "mcphub",
		LogLevel:   "INFO",
		Probe: ProbeSettings{
			URL:        "http://localhost:8080/health",
			Timeout:    5 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Monitor: MonitorSettings{
			Interval:    30 * time.Second,
			ListenAddr:  ":9610",
			ProcessName: "python3",
		},
	}
}

// FromEnv captures the ambient environment once into a Guard.
// getenv is injectable for tests; pass os.Getenv in production.
func FromEnv(getenv func(string) string) (*Guard, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	g := Default()

	if v := getenv(EnvConfigPath); v != "" {
		g.ConfigPath = v
	}
	if v := getenv(EnvPluginsDir); v != "" {
		g.PluginsDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		g.LogLevel = v
	}
	if v := getenv(EnvDataDir); v != "" {
		g.DataDir = v
	}
	if v := getenv(EnvLogDir); v != "" {
		g.LogDir = v
	}
	if v := getenv(EnvRuntime); v != "" {
		g.Runtime = v
	}
	if v := getenv(EnvRunAsUser); v != "" {
		g.RunAsUser = v
	}

	if v := getenv(EnvProbeURL); v != "" {
		g.Probe.URL = v
	}
	if v := getenv(EnvProbeTimeout); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvProbeTimeout, err)
		}
		g.Probe.Timeout = d
	}
	if v := getenv(EnvProbeRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: %q", EnvProbeRetries, v)
		}
		g.Probe.MaxRetries = n
	}
	if v := getenv(EnvProbeRetryDelay); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvProbeRetryDelay, err)
		}
		g.Probe.RetryDelay = d
	}
	switch getenv(EnvProbeDebug) {
	case "1", "true", "TRUE", "yes":
		g.Probe.Debug = true
	}

	return g, nil
}

// parseSeconds accepts either a bare number of seconds ("5") or a Go
// duration string ("5s", "500ms"). The shell-era environment used bare
// seconds, so both forms stay valid.
func parseSeconds(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

// fileSettings is the guard.yaml schema. Durations are strings like the
// scan_interval convention used elsewhere in our tooling ("30s", "1m").
type fileSettings struct {
	Probe struct {
		URL        string `yaml:"url"`
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
		RetryDelay string `yaml:"retry_delay"`
	} `yaml:"probe"`
	Monitor struct {
		Interval    string `yaml:"interval"`
		ListenAddr  string `yaml:"listen_addr"`
		ProcessName string `yaml:"process_name"`
	} `yaml:"monitor"`
}

// ApplyFile overlays settings from a guard.yaml file. A missing file is
// not an error; the file is optional and env/defaults win when absent.
func (g *Guard) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if fs.Probe.URL != "" {
		g.Probe.URL = fs.Probe.URL
	}
	if fs.Probe.Timeout != "" {
		d, err := time.ParseDuration(fs.Probe.Timeout)
		if err != nil {
			return fmt.Errorf("invalid probe.timeout in %s: %w", path, err)
		}
		g.Probe.Timeout = d
	}
	if fs.Probe.MaxRetries > 0 {
		g.Probe.MaxRetries = fs.Probe.MaxRetries
	}
	if fs.Probe.RetryDelay != "" {
		d, err := time.ParseDuration(fs.Probe.RetryDelay)
		if err != nil {
			return fmt.Errorf("invalid probe.retry_delay in %s: %w", path, err)
		}
		g.Probe.RetryDelay = d
	}
	if fs.Monitor.Interval != "" {
		d, err := time.ParseDuration(fs.Monitor.Interval)
		if err != nil {
			return fmt.Errorf("invalid monitor.interval in %s: %w", path, err)
		}
		g.Monitor.Interval = d
	}
	if fs.Monitor.ListenAddr != "" {
		g.Monitor.ListenAddr = fs.Monitor.ListenAddr
	}
	if fs.Monitor.ProcessName != "" {
		g.Monitor.ProcessName = fs.Monitor.ProcessName
	}

	return nil
}

// Validate checks settings that would otherwise fail deep inside a probe.
func (g *Guard) Validate() error {
	if g.ConfigPath == "" {
		return fmt.Errorf("config path must not be empty")
	}
	if g.Probe.URL == "" {
		return fmt.Errorf("probe URL must not be empty")
	}
	if g.Probe.MaxRetries < 1 {
		return fmt.Errorf("probe max retries must be at least 1, got %d", g.Probe.MaxRetries)
	}
	if g.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", g.Probe.Timeout)
	}
	if g.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %v", g.Monitor.Interval)
	}
	return nil
}
