//go:build !windows

package disktier

import "golang.org/x/sys/unix"

// freeBytes reports free space on the filesystem containing path. ok is
// false when the platform doesn't support the check, in which case the
// free-disk-space floor is simply not enforced (§4.E).
func freeBytes(path string) (bytes int64, ok bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, false
	}
	return int64(st.Bavail) * int64(st.Bsize), true
}
