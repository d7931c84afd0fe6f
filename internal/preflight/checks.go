package preflight

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ainsophic/hubguard/internal/config"
)

// checkConfigExists fails unless the configuration artifact is a regular,
// readable file.
func (s *Supervisor) checkConfigExists() error {
	path := s.cfg.ConfigPath

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(ReasonConfigMissing, "config-exists", path,
				fmt.Sprintf("configuration file not found; set %s or mount it into the container", config.EnvConfigPath), err)
		}
		return newError(ReasonConfigMissing, "config-exists", path,
			"configuration file not accessible", err)
	}
	if !info.Mode().IsRegular() {
		return newError(ReasonConfigMissing, "config-exists", path,
			fmt.Sprintf("not a regular file (mode %s)", info.Mode()), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return newError(ReasonConfigMissing, "config-exists", path,
			"configuration file not readable", err)
	}
	f.Close()

	s.log.Info("Configuration file present", map[string]interface{}{"path": path})
	return nil
}

// checkConfigSyntax parses the artifact as JSON. The guarded process is
// never started with a config it cannot load itself.
func (s *Supervisor) checkConfigSyntax() error {
	path := s.cfg.ConfigPath

	data, err := os.ReadFile(path)
	if err != nil {
		return newError(ReasonConfigInvalid, "config-syntax", path,
			"failed to read configuration file", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return newError(ReasonConfigInvalid, "config-syntax", path,
			fmt.Sprintf("invalid JSON (reproduce with: jq . %s)", path), err)
	}

	s.log.Info("Configuration file parses", map[string]interface{}{"path": path})
	return nil
}

// markScriptsExecutable sets the executable bit on auxiliary shell
// scripts. Best effort: a failure here is logged and ignored, a missing
// chmod never justifies refusing to start the service.
func (s *Supervisor) markScriptsExecutable() {
	matches, err := filepath.Glob(filepath.Join(s.cfg.ScriptsDir, "*.sh"))
	if err != nil || len(matches) == 0 {
		return
	}

	for _, script := range matches {
		if err := os.Chmod(script, 0755); err != nil {
			s.log.Warn("Could not mark script executable", map[string]interface{}{
				"script": script,
				"error":  err.Error(),
			})
			continue
		}
		s.log.Debug("Marked script executable", map[string]interface{}{"script": script})
	}
}
