package duocache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// lockFile implements the advisory single-owner lock recommended by §9's
// open question on concurrent same-path instances: spec.md declares the
// behavior of two live instances on one path undefined, and suggests a
// lock file per directory as the documented mitigation. It is advisory
// only — a stale lock from a crashed process is logged and overwritten,
// never treated as a hard failure, since enforcing it strictly would be a
// cross-process coordination feature this cache explicitly doesn't do
// (§1 Non-goals).
type lockFile struct {
	path string
}

func acquireLock(dir string, logger zerolog.Logger) (*lockFile, error) {
	path := filepath.Join(dir, "LOCK")
	if data, err := os.ReadFile(path); err == nil {
		if pid, ok := parseLockPID(string(data)); ok && processAlive(pid) {
			logger.Warn().Int("pid", pid).Str("path", path).
				Msg("duocache: lock file held by a live process; proceeding anyway (single-owner-per-path is advisory, not enforced)")
		} else {
			logger.Info().Str("path", path).Msg("duocache: removing stale lock file")
		}
	}

	contents := fmt.Sprintf("%d\n%s\n", os.Getpid(), uuid.NewString())
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return nil, err
	}
	return &lockFile{path: path}, nil
}

func (l *lockFile) release() {
	if l == nil {
		return
	}
	os.Remove(l.path)
}

func parseLockPID(contents string) (int, bool) {
	line, _, _ := strings.Cut(contents, "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, false
	}
	return pid, true
}

