package preflight

// The supervisor gates startup, then gets out of the way.
// Every check is fail-fast and terminal. No retries, no partial startup.
// After handoff the guarded process owns the PID; we no longer exist.

import (
	"os"
	"os/exec"
	"os/user"
	"syscall"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/pkg/logging"
)

// Supervisor validates the container environment and replaces itself
// with the guarded process.
type Supervisor struct {
	cfg *config.Guard
	log *logging.Logger

	// OS seams, injectable for tests
	geteuid    func() int
	lookPath   func(string) (string, error)
	lookupUser func(string) (*user.User, error)
	chown      func(string, int, int) error
	execve     func(argv0 string, argv []string, envv []string) error
	environ    func() []string
}

// New creates a supervisor bound to the given configuration.
func New(cfg *config.Guard, log *logging.Logger) *Supervisor {
	return &Supervisor{
		cfg:        cfg,
		log:        log,
		geteuid:    os.Geteuid,
		lookPath:   exec.LookPath,
		lookupUser: user.Lookup,
		chown:      os.Chown,
		execve:     syscall.Exec,
		environ:    os.Environ,
	}
}

// Run executes the preflight sequence and, on success, hands off to the
// guarded command. On success Run never returns: the process image is
// replaced so the guarded process inherits our PID and receives
// termination signals directly. A returned error is always terminal.
func (s *Supervisor) Run(command []string) error {
	s.log.Info("Preflight starting", map[string]interface{}{
		"config": s.cfg.ConfigPath,
	})

	if err := s.checkConfigExists(); err != nil {
		return err
	}
	if err := s.checkConfigSyntax(); err != nil {
		return err
	}
	if err := s.prepareDirectories(); err != nil {
		return err
	}
	if err := s.checkRuntime(); err != nil {
		return err
	}

	// Non-critical: auxiliary scripts may be missing entirely
	s.markScriptsExecutable()

	return s.handoff(command)
}

// checkRuntime verifies the interpreter that launches the guarded
// process is on PATH.
func (s *Supervisor) checkRuntime() error {
	path, err := s.lookPath(s.cfg.Runtime)
	if err != nil {
		return newError(ReasonRuntimeMissing, "runtime", s.cfg.Runtime,
			"runtime binary not found on PATH", err)
	}
	s.log.Info("Runtime available", map[string]interface{}{"binary": path})
	return nil
}

// handoff replaces the current process image with the guarded command.
// If the supervisor stayed resident as a parent, SIGTERM from the
// orchestrator would stop at us and the guarded process would be
// force-killed after the grace period. Exec keeps the PID.
func (s *Supervisor) handoff(command []string) error {
	if len(command) == 0 {
		command = []string{s.cfg.Runtime, "-m", "mcp_hub.main"}
	}

	argv0, err := s.lookPath(command[0])
	if err != nil {
		return newError(ReasonHandoffFailed, "handoff", command[0],
			"guarded command not found on PATH", err)
	}

	s.log.Info("Preflight complete, handing off", map[string]interface{}{
		"command": command,
	})

	if err := s.execve(argv0, command, s.environ()); err != nil {
		return newError(ReasonHandoffFailed, "handoff", argv0,
			"exec failed", err)
	}

	// Unreachable on success: exec replaced the process image.
	return nil
}
