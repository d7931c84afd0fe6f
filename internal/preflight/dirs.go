package preflight

import (
	"fmt"
	"os"
	"strconv"
)

// prepareDirectories idempotently creates the writable state directories
// and, when running privileged, hands their ownership to the runtime
// user. When not privileged, ownership is assumed correct from the image
// build or volume mount and left untouched.
func (s *Supervisor) prepareDirectories() error {
	dirs := []string{s.cfg.DataDir, s.cfg.LogDir, s.cfg.PluginsDir}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return newError(ReasonDirUnwritable, "directories", dir,
				"failed to create directory", err)
		}
	}

	if s.geteuid() != 0 {
		s.log.Debug("Not privileged, leaving directory ownership as-is")
		return nil
	}

	uid, gid, err := s.resolveRuntimeIdentity()
	if err != nil {
		return newError(ReasonDirUnwritable, "directories", s.cfg.RunAsUser,
			"cannot resolve runtime user", err)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := s.chown(dir, uid, gid); err != nil {
			return newError(ReasonDirUnwritable, "directories", dir,
				fmt.Sprintf("failed to chown to %s (%d:%d)", s.cfg.RunAsUser, uid, gid), err)
		}
	}

	s.log.Info("Directories prepared", map[string]interface{}{
		"dirs":  dirs,
		"owner": s.cfg.RunAsUser,
	})
	return nil
}

// resolveRuntimeIdentity looks up the unprivileged user the guarded
// process runs as.
func (s *Supervisor) resolveRuntimeIdentity() (int, int, error) {
	u, err := s.lookupUser(s.cfg.RunAsUser)
	if err != nil {
		return 0, 0, err
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric uid %q for user %s", u.Uid, s.cfg.RunAsUser)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric gid %q for user %s", u.Gid, s.cfg.RunAsUser)
	}

	return uid, gid, nil
}
