//go:build windows

package duocache

import "os"

// processAlive on Windows falls back to FindProcess succeeding, which is
// weaker than the Unix signal-0 probe but keeps the lock purely advisory.
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
