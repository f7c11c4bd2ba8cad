// Package disktier implements the persistent tier of the cache: a sqlite
// manifest for metadata plus a flat-file store for large blobs, composed
// behind the same cost/count/age trimming discipline as the memory tier.
package disktier

import (
	"database/sql"

	"github.com/pkg/errors"
)

// schemaVersion is recorded in PRAGMA user_version. Bumping it without a
// migration path is a breaking change — openManifest rejects anything it
// doesn't recognize rather than guessing.
const schemaVersion = 1

const createTableSQL = `
CREATE TABLE IF NOT EXISTS manifest (
	key                TEXT PRIMARY KEY,
	filename           TEXT,
	size               INTEGER NOT NULL,
	inline_data        BLOB,
	modification_time  INTEGER NOT NULL,
	last_access_time   INTEGER NOT NULL,
	extended_data      BLOB
);
CREATE INDEX IF NOT EXISTS idx_manifest_last_access ON manifest(last_access_time);
`

// migrate opens (or creates) the manifest schema and sets pragmas per §4.C:
// WAL journaling, synchronous=NORMAL, and a PRAGMA user_version gate.
func migrate(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return errors.Wrapf(err, "disktier: set pragma %q", p)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "disktier: read schema version")
	}

	switch version {
	case 0:
		if _, err := db.Exec(createTableSQL); err != nil {
			return errors.Wrap(err, "disktier: create schema")
		}
		if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
			return errors.Wrap(err, "disktier: stamp schema version")
		}
	case schemaVersion:
		// already current
	default:
		return errors.Errorf("disktier: unsupported manifest schema version %d", version)
	}
	return nil
}
