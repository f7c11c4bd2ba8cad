//go:build windows

package disktier

// freeBytes is not implemented on windows; the free-disk-space floor is
// simply not enforced there (§4.E treats the limit as advisory).
func freeBytes(path string) (bytes int64, ok bool) {
	return 0, false
}
