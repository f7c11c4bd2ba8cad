package disktier

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// row is the metadata record for one key, mirroring the manifest table
// column-for-column (§6).
type row struct {
	Key              string
	Filename         sql.NullString
	Size             int64
	InlineData       []byte
	ModificationTime int64
	LastAccessTime   int64
	ExtendedData     []byte
}

// manifest wraps the sqlite-backed relational index with prepared
// statements for every hot path named in §4.C.
type manifest struct {
	db *sql.DB

	stmtGet          *sql.Stmt
	stmtUpsert       *sql.Stmt
	stmtUpdateAccess *sql.Stmt
	stmtDelete       *sql.Stmt
	stmtLRUBatch     *sql.Stmt
	stmtCount        *sql.Stmt
	stmtSumSize      *sql.Stmt
	stmtOlderThan    *sql.Stmt
	stmtAllKeys      *sql.Stmt
}

func openManifest(path string) (*manifest, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "disktier: open manifest")
	}
	// A single writer serializes through our own mutex already; keep the
	// driver from also fan-out-ing connections against one sqlite file.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	m := &manifest{db: db}
	if err := m.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *manifest) prepare() error {
	stmts := []struct {
		dst  **sql.Stmt
		text string
	}{
		{&m.stmtGet, `SELECT key, filename, size, inline_data, modification_time, last_access_time, extended_data
			FROM manifest WHERE key = ?`},
		{&m.stmtUpsert, `INSERT INTO manifest (key, filename, size, inline_data, modification_time, last_access_time, extended_data)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				filename = excluded.filename,
				size = excluded.size,
				inline_data = excluded.inline_data,
				modification_time = excluded.modification_time,
				last_access_time = excluded.last_access_time,
				extended_data = excluded.extended_data`},
		{&m.stmtUpdateAccess, `UPDATE manifest SET last_access_time = ? WHERE key = ?`},
		{&m.stmtDelete, `DELETE FROM manifest WHERE key = ?`},
		{&m.stmtLRUBatch, `SELECT key, filename, size FROM manifest ORDER BY last_access_time ASC LIMIT ?`},
		{&m.stmtCount, `SELECT COUNT(*) FROM manifest`},
		{&m.stmtSumSize, `SELECT COALESCE(SUM(size), 0) FROM manifest`},
		{&m.stmtOlderThan, `SELECT key, filename, size FROM manifest WHERE last_access_time < ?`},
		{&m.stmtAllKeys, `SELECT key, filename FROM manifest`},
	}
	for _, s := range stmts {
		stmt, err := m.db.Prepare(s.text)
		if err != nil {
			return errors.Wrapf(err, "disktier: prepare %q", s.text)
		}
		*s.dst = stmt
	}
	return nil
}

func (m *manifest) get(key string) (row, bool, error) {
	var r row
	err := m.stmtGet.QueryRow(key).Scan(
		&r.Key, &r.Filename, &r.Size, &r.InlineData, &r.ModificationTime, &r.LastAccessTime, &r.ExtendedData,
	)
	if err == sql.ErrNoRows {
		return row{}, false, nil
	}
	if err != nil {
		return row{}, false, errors.Wrap(err, "disktier: get row")
	}
	return r, true, nil
}

func (m *manifest) upsert(r row) error {
	now := time.Now().Unix()
	if r.LastAccessTime == 0 {
		r.LastAccessTime = now
	}
	if r.ModificationTime == 0 {
		r.ModificationTime = now
	}
	_, err := m.stmtUpsert.Exec(r.Key, r.Filename, r.Size, r.InlineData, r.ModificationTime, r.LastAccessTime, r.ExtendedData)
	if err != nil {
		return errors.Wrap(err, "disktier: upsert row")
	}
	return nil
}

// touch updates last_access_time for key. Tier.Get calls it eagerly on
// every hit; touches are not batched or deferred.
func (m *manifest) touch(key string, at time.Time) error {
	_, err := m.stmtUpdateAccess.Exec(at.Unix(), key)
	if err != nil {
		return errors.Wrap(err, "disktier: touch row")
	}
	return nil
}

func (m *manifest) delete(key string) error {
	_, err := m.stmtDelete.Exec(key)
	if err != nil {
		return errors.Wrap(err, "disktier: delete row")
	}
	return nil
}

type lruCandidate struct {
	Key      string
	Filename sql.NullString
	Size     int64
}

func (m *manifest) lruBatch(n int) ([]lruCandidate, error) {
	rows, err := m.stmtLRUBatch.Query(n)
	if err != nil {
		return nil, errors.Wrap(err, "disktier: select lru batch")
	}
	defer rows.Close()
	var out []lruCandidate
	for rows.Next() {
		var c lruCandidate
		if err := rows.Scan(&c.Key, &c.Filename, &c.Size); err != nil {
			return nil, errors.Wrap(err, "disktier: scan lru batch")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *manifest) olderThan(cutoff time.Time) ([]lruCandidate, error) {
	rows, err := m.stmtOlderThan.Query(cutoff.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "disktier: select older-than batch")
	}
	defer rows.Close()
	var out []lruCandidate
	for rows.Next() {
		var c lruCandidate
		if err := rows.Scan(&c.Key, &c.Filename, &c.Size); err != nil {
			return nil, errors.Wrap(err, "disktier: scan older-than batch")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *manifest) count() (int64, error) {
	var n int64
	if err := m.stmtCount.QueryRow().Scan(&n); err != nil {
		return 0, errors.Wrap(err, "disktier: count rows")
	}
	return n, nil
}

func (m *manifest) sumSize() (int64, error) {
	var n int64
	if err := m.stmtSumSize.QueryRow().Scan(&n); err != nil {
		return 0, errors.Wrap(err, "disktier: sum size")
	}
	return n, nil
}

// allFilenames returns every non-null filename referenced by the manifest,
// used at startup to distinguish live external files from orphans.
func (m *manifest) allFilenames() (map[string]bool, error) {
	rows, err := m.stmtAllKeys.Query()
	if err != nil {
		return nil, errors.Wrap(err, "disktier: list filenames")
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var key string
		var fn sql.NullString
		if err := rows.Scan(&key, &fn); err != nil {
			return nil, errors.Wrap(err, "disktier: scan filenames")
		}
		if fn.Valid {
			out[fn.String] = true
		}
	}
	return out, rows.Err()
}

// clear deletes every row.
func (m *manifest) clear() error {
	_, err := m.db.Exec("DELETE FROM manifest")
	return errors.Wrap(err, "disktier: clear manifest")
}

// checkpoint issues a WAL checkpoint, called on explicit Flush and on Close.
func (m *manifest) checkpoint() error {
	_, err := m.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return errors.Wrap(err, "disktier: checkpoint")
}

func (m *manifest) close() error {
	for _, s := range []*sql.Stmt{
		m.stmtGet, m.stmtUpsert, m.stmtUpdateAccess, m.stmtDelete,
		m.stmtLRUBatch, m.stmtCount, m.stmtSumSize, m.stmtOlderThan, m.stmtAllKeys,
	} {
		if s != nil {
			s.Close()
		}
	}
	return m.db.Close()
}
