package disktier

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// fileStore owns the data/ and trash/ directories described in §4.D: large
// blobs live in data/ named by the hex of a strong hash of their key, and
// deletions move files into trash/ first (fast, atomic rename) before
// unlinking them in the background.
type fileStore struct {
	dataDir  string
	trashDir string
}

func newFileStore(root string) (*fileStore, error) {
	fs := &fileStore{
		dataDir:  filepath.Join(root, "data"),
		trashDir: filepath.Join(root, "trash"),
	}
	if err := os.MkdirAll(fs.dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "disktier: create data dir")
	}
	if err := os.MkdirAll(fs.trashDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "disktier: create trash dir")
	}
	return fs, nil
}

// filenameFor returns the on-disk filename for key. Collisions are
// negligible for cache purposes per §4.D; on an observed collision the
// newer write simply overwrites, with the index remaining authoritative.
func filenameFor(key string) string {
	sum := xxhash.Sum64String(key)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf)
}

func (fs *fileStore) path(filename string) string {
	return filepath.Join(fs.dataDir, filename)
}

// write stores data under filename, fsyncing before returning so a crash
// right after does not leave a zero-length or partially-written file
// referenced by a committed row.
func (fs *fileStore) write(filename string, data []byte) error {
	tmp := fs.path(filename) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "disktier: create blob file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "disktier: write blob file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "disktier: fsync blob file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "disktier: close blob file")
	}
	if err := os.Rename(tmp, fs.path(filename)); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "disktier: publish blob file")
	}
	return nil
}

// read loads the named blob. A missing or unreadable file is reported by
// returning the os.ReadFile error unchanged (os.IsNotExist holds for a
// missing file) so callers can treat it as BackendCorrupt per §7.
func (fs *fileStore) read(filename string) ([]byte, error) {
	data, err := os.ReadFile(fs.path(filename))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// remove moves filename into trash/ (a same-filesystem rename, so this is
// effectively instant) and returns; the caller decides when to drain trash.
func (fs *fileStore) remove(filename string) error {
	src := fs.path(filename)
	dst := filepath.Join(fs.trashDir, filename)
	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "disktier: move blob to trash")
	}
	return nil
}

// emptyTrash unlinks every file currently in trash/. Safe to call
// concurrently with remove(), which only ever adds new entries.
func (fs *fileStore) emptyTrash() error {
	entries, err := os.ReadDir(fs.trashDir)
	if err != nil {
		return errors.Wrap(err, "disktier: list trash dir")
	}
	var firstErr error
	for _, e := range entries {
		if err := os.Remove(filepath.Join(fs.trashDir, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// orphanFiles returns filenames present in data/ that are not in live, the
// set of filenames referenced by the manifest.
func (fs *fileStore) orphanFiles(live map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(fs.dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "disktier: list data dir")
	}
	var orphans []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".tmp" {
			orphans = append(orphans, name)
			continue
		}
		if !live[name] {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

func (fs *fileStore) removeOrphan(filename string) error {
	err := os.Remove(fs.path(filename))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
