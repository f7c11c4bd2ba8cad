//go:build !windows

package duocache

import (
	"os"
	"syscall"
)

// processAlive probes pid without sending a real signal.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
