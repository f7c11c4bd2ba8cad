package disktier

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/prometheus/client_golang/prometheus"
)

// lruBatchSize is the number of rows fetched per trimming pass, per §4.E.
const lruBatchSize = 16

// Tier is the persistent half of the cache: a sqlite manifest for metadata
// (and small, inline values) plus a flat-file store for large blobs,
// composed behind the same {count, cost, age} trimming discipline as the
// memory tier, with a background queue for async operations and timers.
type Tier struct {
	mu    sync.Mutex
	man   *manifest
	files *fileStore

	root           string
	inlineThresh   int64
	countLimit     int64
	costLimit      int64
	ageLimit       time.Duration
	trimInterval   time.Duration
	freeSpaceFloor int64

	logger  zerolog.Logger
	stats   Stats
	statsMu sync.Mutex
	metrics *metrics

	queue     chan func()
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open creates or opens the disk tier rooted at dir: dir/manifest.db for
// the relational index, dir/data for external blobs, dir/trash for
// pending deletions. Startup reconciles the file store against the index
// per §4.E and §8 property 8, then empties trash/ asynchronously.
func Open(dir string, opts ...Option) (*Tier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(ErrBackendUnavailable, err.Error())
	}

	man, err := openManifest(filepath.Join(dir, "manifest.db"))
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnavailable, err.Error())
	}

	files, err := newFileStore(dir)
	if err != nil {
		man.close()
		return nil, errors.Wrap(ErrBackendUnavailable, err.Error())
	}

	t := &Tier{
		man:            man,
		files:          files,
		root:           dir,
		inlineThresh:   cfg.inlineThresh,
		countLimit:     cfg.countLimit,
		costLimit:      cfg.costLimit,
		ageLimit:       cfg.ageLimit,
		trimInterval:   cfg.trimInterval,
		freeSpaceFloor: cfg.freeSpaceFloor,
		logger:         cfg.logger,
		queue:          make(chan func(), 256),
		stopCh:         make(chan struct{}),
	}
	if cfg.registerMetric {
		t.metrics = newMetrics(cfg.namespace, cfg.subsystem)
	}

	if err := t.reconcile(); err != nil {
		t.logger.Error().Err(err).Msg("disktier: startup reconciliation failed")
	}
	t.wg.Add(1)
	go t.worker()
	t.submit(func() { t.files.emptyTrash() })
	t.startJanitor()

	return t, nil
}

// reconcile implements §8 property 8 and §4.E startup step 2: delete
// orphaned files, and delete rows whose external file is missing.
func (t *Tier) reconcile() error {
	live, err := t.man.allFilenames()
	if err != nil {
		return err
	}
	orphans, err := t.files.orphanFiles(live)
	if err != nil {
		return err
	}
	for _, o := range orphans {
		if err := t.files.removeOrphan(o); err != nil {
			t.logger.Warn().Err(err).Str("file", o).Msg("disktier: failed to remove orphan file")
		}
	}

	for fn := range live {
		if _, err := os.Stat(t.files.path(fn)); os.IsNotExist(err) {
			if err := t.deleteRowsByFilename(fn); err != nil {
				t.logger.Warn().Err(err).Str("file", fn).Msg("disktier: failed to purge row for missing file")
			}
		}
	}
	return nil
}

func (t *Tier) deleteRowsByFilename(filename string) error {
	_, err := t.man.db.Exec("DELETE FROM manifest WHERE filename = ?", filename)
	return err
}

// Contains reports whether key has a live row.
func (t *Tier) Contains(key string) bool {
	if key == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, found, err := t.man.get(key)
	if err != nil {
		t.logger.Warn().Err(err).Msg("disktier: contains lookup failed")
		return false
	}
	return found
}

// Get returns the bytes stored for key. A miss, a corrupt/missing external
// file, or an empty key all report ok=false; in the corrupt-file case the
// offending row is deleted per §7 BackendCorrupt policy.
func (t *Tier) Get(key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	t.mu.Lock()
	r, found, err := t.man.get(key)
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn().Err(err).Msg("disktier: get failed")
		t.bumpMiss()
		return nil, false
	}
	if !found {
		t.bumpMiss()
		return nil, false
	}

	var data []byte
	if r.Filename.Valid {
		data, err = t.files.read(r.Filename.String)
		if err != nil {
			t.logger.Warn().Err(err).Str("key", key).Msg("disktier: external blob unreadable, purging row")
			t.mu.Lock()
			t.man.delete(key)
			t.mu.Unlock()
			t.bumpMiss()
			return nil, false
		}
	} else {
		data = r.InlineData
	}

	t.mu.Lock()
	touchErr := t.man.touch(key, time.Now())
	t.mu.Unlock()
	if touchErr != nil {
		t.logger.Warn().Err(touchErr).Str("key", key).Msg("disktier: failed to update last-access time")
	}

	t.bumpHit()
	return data, true
}

// Set stores data under key, with extended as caller-opaque metadata.
// Values at or below the inline threshold are written into the manifest
// row directly; larger values go to an external file named by the hash of
// key (§4.D/§4.E). A nil data is equivalent to Remove.
func (t *Tier) Set(key string, data []byte, extended []byte) error {
	if key == "" {
		return nil
	}
	if data == nil {
		t.Remove(key)
		return nil
	}

	t.mu.Lock()
	existing, hadRow, _ := t.man.get(key)
	t.mu.Unlock()

	var newRow row
	newRow.Key = key
	newRow.Size = int64(len(data))
	newRow.ExtendedData = extended
	newRow.ModificationTime = time.Now().Unix()
	newRow.LastAccessTime = newRow.ModificationTime

	var writtenFile string
	if int64(len(data)) > t.inlineThresh {
		fn := filenameFor(key)
		if err := t.files.write(fn, data); err != nil {
			return errors.Wrap(err, "disktier: set")
		}
		writtenFile = fn
		newRow.Filename = sql.NullString{String: fn, Valid: true}
	} else {
		newRow.InlineData = data
	}

	t.mu.Lock()
	err := t.man.upsert(newRow)
	t.mu.Unlock()
	if err != nil {
		if writtenFile != "" {
			os.Remove(t.files.path(writtenFile)) // roll back: don't leave an orphan blob
		}
		return errors.Wrap(err, "disktier: set")
	}

	// Replace: if the old value lived in an external file that the new
	// write didn't reuse, retire it.
	if hadRow && existing.Filename.Valid && existing.Filename.String != writtenFile {
		if err := t.files.remove(existing.Filename.String); err != nil {
			t.logger.Warn().Err(err).Msg("disktier: failed to trash superseded blob")
		}
	}

	t.bumpSet()
	t.syncGauges()
	return nil
}

// Remove deletes key's row and, if present, moves its external file to trash.
func (t *Tier) Remove(key string) {
	if key == "" {
		return
	}
	t.mu.Lock()
	r, found, _ := t.man.get(key)
	if found {
		t.man.delete(key)
	}
	t.mu.Unlock()
	if found && r.Filename.Valid {
		if err := t.files.remove(r.Filename.String); err != nil {
			t.logger.Warn().Err(err).Msg("disktier: failed to trash removed blob")
		}
	}
	t.bumpRemove()
	t.syncGauges()
}

// Clear deletes every row and trashes every external file.
func (t *Tier) Clear() {
	t.mu.Lock()
	live, _ := t.man.allFilenames()
	t.man.clear()
	t.mu.Unlock()
	for fn := range live {
		if err := t.files.remove(fn); err != nil {
			t.logger.Warn().Err(err).Msg("disktier: failed to trash blob during clear")
		}
	}
	t.syncGauges()
}

// TotalCount returns the number of live rows.
func (t *Tier) TotalCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.man.count()
	if err != nil {
		t.logger.Warn().Err(err).Msg("disktier: count failed")
		return 0
	}
	return n
}

// TotalCost returns the sum of blob sizes across all rows.
func (t *Tier) TotalCost() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.man.sumSize()
	if err != nil {
		t.logger.Warn().Err(err).Msg("disktier: sum size failed")
		return 0
	}
	return n
}

// Stats returns a point-in-time snapshot of hit/miss/eviction counters.
func (t *Tier) Stats() Stats {
	t.statsMu.Lock()
	s := t.stats
	t.statsMu.Unlock()
	s.Count = t.TotalCount()
	s.Cost = t.TotalCost()
	return s
}

// Flush issues a WAL checkpoint, per §4.C.
func (t *Tier) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.man.checkpoint()
}

// Collectors exposes the Prometheus instruments backing this tier.
func (t *Tier) Collectors() []prometheus.Collector {
	if t.metrics == nil {
		return nil
	}
	return t.metrics.Collectors()
}

// Close stops the background worker and timers, flushes the manifest, and
// closes the underlying database. Safe to call more than once.
func (t *Tier) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()
		t.mu.Lock()
		t.man.checkpoint()
		err = t.man.close()
		t.mu.Unlock()
	})
	return err
}

func (t *Tier) bumpHit() {
	t.statsMu.Lock()
	t.stats.Hits++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.hits.Inc()
	}
}

func (t *Tier) bumpMiss() {
	t.statsMu.Lock()
	t.stats.Misses++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.misses.Inc()
	}
}

func (t *Tier) bumpSet() {
	t.statsMu.Lock()
	t.stats.Sets++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.sets.Inc()
	}
}

func (t *Tier) bumpRemove() {
	t.statsMu.Lock()
	t.stats.Removes++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.removes.Inc()
	}
}

func (t *Tier) bumpEviction(n int) {
	if n <= 0 {
		return
	}
	t.statsMu.Lock()
	t.stats.Evictions += uint64(n)
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.evictions.Add(float64(n))
	}
}

func (t *Tier) syncGauges() {
	if t.metrics == nil {
		return
	}
	t.metrics.count.Set(float64(t.TotalCount()))
	t.metrics.cost.Set(float64(t.TotalCost()))
}

// submit queues fn on the single background worker. Used for both async
// API dispatch and startup trash draining; periodic trimming runs on the
// janitor's own goroutine instead.
func (t *Tier) submit(fn func()) {
	select {
	case t.queue <- fn:
	case <-t.stopCh:
	}
}

func (t *Tier) worker() {
	defer t.wg.Done()
	for {
		select {
		case fn := <-t.queue:
			fn()
		case <-t.stopCh:
			// Drain whatever is already queued before exiting so async
			// callers that already got a submission in don't hang.
			for {
				select {
				case fn := <-t.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}
